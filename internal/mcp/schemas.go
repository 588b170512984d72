package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestDocumentsTool returns the tool definition for ingest_documents
func ingestDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_documents",
		Description: "Chunk, embed, and store documents so they become searchable and usable as query context",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"documents": map[string]interface{}{
					"type":        "array",
					"description": "Documents to ingest",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"source": map[string]interface{}{
								"type":        "string",
								"description": "Document identifier recorded as provenance (e.g. a file name or URL)",
							},
							"content": map[string]interface{}{
								"type":        "string",
								"description": "Document text",
							},
							"tags": map[string]interface{}{
								"type":        "object",
								"description": "Optional metadata tags copied onto every chunk (e.g. {\"topic\": \"cats\"})",
							},
						},
						"required": []string{"content"},
					},
				},
			},
			Required: []string{"documents"},
		},
	}
}

// queryTool returns the tool definition for query
func queryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query",
		Description: "Answer a question using retrieved document chunks as context; returns the answer plus its sources",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question",
				},
				"topic": map[string]interface{}{
					"type":        "string",
					"description": "Restrict retrieval to chunks whose topic tag matches exactly",
				},
			},
			Required: []string{"question"},
		},
	}
}

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Similarity search over stored chunks without generation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search text",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "exact scans every record; approximate uses the LSH index (faster, may miss results)",
					"enum":        []string{"exact", "approximate"},
					"default":     "exact",
				},
				"filter": map[string]interface{}{
					"type":        "object",
					"description": "Metadata equality filter, exact mode only (e.g. {\"topic\": \"cats\"})",
				},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum similarity score (0.0-1.0), exact mode only",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// deleteDocumentTool returns the tool definition for delete_document
func deleteDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a stored chunk by record id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Record id as returned by search or query sources",
				},
			},
			Required: []string{"id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report record count, cache and index sizes, build mode, and the active embedding provider",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// cleanupCacheTool returns the tool definition for cleanup_cache
func cleanupCacheTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cleanup_cache",
		Description: "Drop the in-memory norm and content caches; stored records and the LSH index are untouched",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearIndexTool returns the tool definition for clear_index
func clearIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_index",
		Description: "Drop all LSH buckets; approximate search returns nothing until records are re-ingested",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
