// Package mcp implements the Model Context Protocol (MCP) server for
// PocketRAG.
//
// The server exposes seven tools to MCP clients:
//   - ingest_documents: chunk, embed, and store documents
//   - query: answer a question with retrieved chunks as context
//   - search: similarity search without generation (exact or approximate)
//   - delete_document: remove a stored chunk by id
//   - get_status: record count, cache and index sizes, build info
//   - cleanup_cache: drop the in-memory caches
//   - clear_index: drop the LSH buckets
//
// MCP is JSON-RPC 2.0 over stdio. Stdout carries protocol messages only; all
// logging goes to stderr.
//
// Errors follow standard JSON-RPC conventions:
//   - -32602: invalid params (missing or malformed arguments)
//   - -32603: internal error (storage, embedding, generation)
//   - -32001: empty query or question
//
// Configure in an MCP client:
//
//	{
//	  "mcpServers": {
//	    "pocketrag": {
//	      "command": "/usr/local/bin/pocketrag",
//	      "env": {
//	        "POCKETRAG_DB_PATH": "/var/lib/pocketrag/pocketrag.db",
//	        "POCKETRAG_EMBEDDING_PROVIDER": "ollama"
//	      }
//	    }
//	  }
//	}
package mcp
