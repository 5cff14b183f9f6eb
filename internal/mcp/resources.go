package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"console/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

const uriPrefix = "console://apps/"

func (s *Server) registerResources() {
	// ── console://apps/{appId}/collections ─────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			uriPrefix+"{appId}/collections",
			"Collections of an App",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleCollectionsResource,
	)

	// ── console://apps/{appId}/collections/{name}/records ──
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			uriPrefix+"{appId}/collections/{name}/records",
			"Records of a Collection",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleRecordsResource,
	)
}

func (s *Server) handleCollectionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	appID, _, ok := parseResourceURI(uri)
	if !ok {
		return nil, fmt.Errorf("could not parse resource URI: %s", uri)
	}

	cols, err := s.collections.List(ctx, domain.AppContext{AppID: appID})
	if err != nil {
		return nil, err
	}

	type collectionSummary struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		Fields      int    `json:"fields"`
	}
	summaries := make([]collectionSummary, len(cols))
	for i, c := range cols {
		summaries[i] = collectionSummary{Name: c.Name, DisplayName: c.DisplayName, Fields: len(c.Schema)}
	}
	return jsonContents(uri, summaries)
}

func (s *Server) handleRecordsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	appID, name, ok := parseResourceURI(uri)
	if !ok || name == "" {
		return nil, fmt.Errorf("could not parse resource URI: %s", uri)
	}

	records, err := s.records.List(ctx, domain.AppContext{AppID: appID}, name)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, records)
}

// parseResourceURI splits "console://apps/{app}/collections[/{name}/records]".
func parseResourceURI(uri string) (appID, collection string, ok bool) {
	rest, found := strings.CutPrefix(uri, uriPrefix)
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 2 && parts[1] == "collections":
		return parts[0], "", parts[0] != ""
	case len(parts) == 4 && parts[1] == "collections" && parts[3] == "records":
		return parts[0], parts[2], parts[0] != ""
	}
	return "", "", false
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
