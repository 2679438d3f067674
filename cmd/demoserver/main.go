// Command demoserver starts a local origin for trying the Http plugin.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/hybridhttp/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}
	if v := os.Getenv("HYBRIDHTTP_BRIDGE_URL"); v != "" {
		cfg.BridgeURL = v
	}

	fmt.Println("===========================================")
	fmt.Println("   HybridHTTP Demo Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  /                 playground (calls the bridge at", cfg.BridgeURL+")")
	fmt.Println("  /echo             reflects method, query, headers and body")
	fmt.Println("  /json             always answers application/json")
	fmt.Println("  /upload           multipart summary")
	fmt.Println("  /download/{size}  size bytes of octet-stream")
	fmt.Println("  /cookies          cookies the request carried")
	fmt.Println("  /cookies/set?k=v  sets one cookie per parameter")
	fmt.Println("  /status/{code}    answers with that status")
	fmt.Println("  /redirect?to=     302 to the target")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
