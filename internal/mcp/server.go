// Package mcp exposes the pharmacy tool set over the Model Context
// Protocol, so external MCP clients can query the catalog and place
// reservations through the same handlers the assistant uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/tools"
)

// Server wraps the MCP SDK server around the tool kit.
type Server struct {
	mcpServer *mcp.Server
	kit       *tools.Kit
	language  i18n.Language
	logger    log.Logger
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string

	Kit *tools.Kit
	// Language localizes tool output for clients without language
	// negotiation. Default: English.
	Language i18n.Language
	Logger   log.Logger
}

// NewServer creates an MCP server with all pharmacy tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Kit == nil {
		return nil, fmt.Errorf("tool kit is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	language := cfg.Language
	if language == "" {
		language = i18n.DefaultLanguage
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		kit:      cfg.Kit,
		language: language,
		logger:   logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// Run serves the MCP protocol on the given transport. Blocking.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	k := s.kit
	if err := addTool(s, tools.ToolMedicationInfo, k.MedicationInfo); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolCheckStock, k.Stock); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolDosageInfo, k.Dosage); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolSearchByIngredient, k.SearchByIngredient); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolUserPrescriptions, k.Prescriptions); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolEligibility, k.PrescriptionEligibility); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolCheckAllergy, k.Allergy); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolReserveMedication, k.Reserve); err != nil {
		return err
	}
	if err := addTool(s, tools.ToolPrescriptionRequirement, k.PrescriptionRequirement); err != nil {
		return err
	}
	return addTool(s, tools.ToolDrugInteractions, k.Interactions)
}

// addTool registers one kit handler, inferring its input schema from the
// handler's input struct. The MCP response is built inline: business errors
// become IsError text results, success payloads are returned as JSON.
func addTool[In any](s *Server, name string, fn func(context.Context, In) (tools.Result, error)) error {
	inputSchema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("creating input schema for %s: %w", name, err)
	}

	tool := &mcp.Tool{
		Name:        name,
		Description: tools.Description(name),
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		ctx = tools.ContextWithLanguage(ctx, s.language)
		result, err := fn(ctx, in)
		if err != nil {
			return nil, nil, fmt.Errorf("executing %s: %w", name, err)
		}

		if result.Status == tools.StatusError {
			errorText := fmt.Sprintf("Error [%s]: %s", result.Error.Code, result.Error.Message)
			if result.Error.Details != nil {
				details, _ := json.Marshal(result.Error.Details)
				errorText += fmt.Sprintf("\nDetails: %s", details)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: errorText}},
				IsError: true,
			}, nil, nil
		}

		payload, err := json.Marshal(result.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding %s result: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil, nil
	})

	return nil
}
