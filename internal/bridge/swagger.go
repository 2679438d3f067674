package bridge

//go:generate swag init -g internal/bridge/server.go -o internal/bridge/docs

// @title HybridHTTP Bridge API
// @version 0.1
// @description Calls the Http plugin (requests, cookies, upload, download) from a web view.
// @contact.name HybridHTTP Maintainers
// @contact.url https://github.com/raysh454/hybridhttp
// @BasePath /
