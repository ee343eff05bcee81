package internal

import (
	"github.com/starford/fragments/internal/api"
	"github.com/starford/fragments/internal/fragmentservice"
	"github.com/starford/fragments/internal/mcpserver"
)

// runMCP serves the fragment tools over stdio. The MCP surface is
// local and single-principal, so it acts as the anonymous owner — the
// same identity the HTTP API uses with auth disabled.
func runMCP(svc *fragmentservice.Service) error {
	return mcpserver.New(svc, api.LocalOwnerID()).ServeStdio()
}
