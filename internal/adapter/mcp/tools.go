package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/guillermoBallester/narrows/internal/core/domain"
	"github.com/guillermoBallester/narrows/internal/core/port"
	"github.com/guillermoBallester/narrows/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "narrows"

// Tool descriptions
const (
	descListTables = "List every table in the database with its CREATE TABLE statement, ordered by name. " +
		"Call this first to discover what tables exist before asking for schemas or writing queries."

	descGetTableSchema = "Get a table's full schema: columns with declared types, nullability, defaults, " +
		"and primary-key flags; the exact record count; and up to 3 sample rows. " +
		"Use this to understand a table's shape before writing queries — the sample rows show " +
		"real value formats and the record count tells you whether a LIMIT clause is advisable."

	descGetTableSchemaParam = "Name of the table to inspect"

	descExecuteSafeQuery = "Execute a read-only SELECT query and return rows as JSON objects plus column names, " +
		"row count, and execution timestamp. Only single SELECT statements are accepted: " +
		"DDL/DML keywords, SQL comments, and UNION chains are rejected even inside identifiers, " +
		"so avoid column names containing words like CREATE or UPDATE. " +
		"A server-side row cap and query timeout are enforced."

	descExecuteSafeQueryParam = "SQL query to execute (a single SELECT statement)"
)

func RegisterTools(s *server.MCPServer, explorer port.SchemaExplorer, query *service.QueryService) {
	s.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription(descListTables),
		),
		listTablesHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("get_table_schema",
			mcp.WithDescription(descGetTableSchema),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description(descGetTableSchemaParam),
			),
		),
		getTableSchemaHandler(explorer),
	)

	s.AddTool(
		mcp.NewTool("execute_safe_query",
			mcp.WithDescription(descExecuteSafeQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descExecuteSafeQueryParam),
			),
		),
		executeSafeQueryHandler(query),
	)
}

func listTablesHandler(explorer port.SchemaExplorer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := explorer.ListTables(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tables: %v", err)), nil
		}

		data, err := json.Marshal(tables)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func getTableSchemaHandler(explorer port.SchemaExplorer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableName, ok := request.GetArguments()["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}

		schema, err := explorer.GetTableSchema(ctx, tableName)
		if errors.Is(err, domain.ErrTableNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get table schema: %v", err)), nil
		}

		data, err := json.Marshal(schema)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func executeSafeQueryHandler(query *service.QueryService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		ctx = service.WithToolName(ctx, "execute_safe_query")
		result, err := query.Execute(ctx, sql)
		if err != nil {
			// Validation rejections and engine errors alike reach the caller
			// verbatim, never downgraded to a generic failure.
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}
