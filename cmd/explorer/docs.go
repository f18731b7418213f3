//go:generate swag init -g docs.go -o ../../docs --parseDependency --parseInternal --dir .,../../internal/httpapi

package main

// @title data_explorer API
// @version 1.0
// @description Server-rendered users data browser with a JSON rendition of every page state.
// @BasePath /
