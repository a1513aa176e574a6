package main

import (
	"embed"
	"io/fs"
)

//go:embed deploy/*
var deployFiles embed.FS

// GetDeployFS returns the embedded unit template and example files
func GetDeployFS() fs.FS {
	sub, err := fs.Sub(deployFiles, "deploy")
	if err != nil {
		panic(err)
	}
	return sub
}
