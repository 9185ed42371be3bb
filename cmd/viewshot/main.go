// Package main provides viewshot - multi-viewport page screenshots.
//
// Usage:
//
//	viewshot --url <url> --config <viewports.json> [options]
//	viewshot install [-b chromium,firefox,webkit]
//	viewshot version
//
// Examples:
//
//	viewshot -u https://example.com -c viewports.json
//	viewshot -u https://example.com -c viewports.json -d -z 1.5 --delay 200 -p
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"viewshot/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
