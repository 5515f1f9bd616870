package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"langid/internal/config"
	"langid/internal/service/feature"
	"langid/internal/service/vocabulary"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type FeatureServer struct {
	server         *mcp.Server
	featureService *feature.FeatureService
	logger         *zap.Logger
	handler        *mcp.StreamableHTTPHandler
}

type TokenizeParams struct {
	Source string `json:"source" jsonschema:"the source text to tokenize"`
}

type ExtractFeaturesParams struct {
	Source   string `json:"source" jsonschema:"the source text to convert into a feature map"`
	Language string `json:"language,omitempty" jsonschema:"optional class label attached to the sample"`
	Filename string `json:"filename,omitempty" jsonschema:"optional file name used to fill the extension field"`
}

func NewFeatureServer(featureService *feature.FeatureService, cfg config.MCPConfig, logger *zap.Logger) *FeatureServer {
	server := &FeatureServer{
		featureService: featureService,
		logger:         logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "tokenize",
		Description: "Tokenize source text with the generic language-agnostic tokenizer. Returns the rendered token stream and its distinct terms",
	}, server.handleTokenize)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "extractFeatures",
		Description: "Convert source text into a presence feature map over the loaded vocabulary, ready for a language classifier",
	}, server.handleExtractFeatures)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

func (s *FeatureServer) handleTokenize(ctx context.Context, req *mcp.CallToolRequest, args TokenizeParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling tokenize request", zap.Int("bytes", len(args.Source)))

	result, err := s.featureService.Tokenize(ctx, []byte(args.Source))
	if err != nil {
		s.logger.Error("Failed to tokenize", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to tokenize: %v", err)), nil, nil
	}

	return jsonResult(result)
}

func (s *FeatureServer) handleExtractFeatures(ctx context.Context, req *mcp.CallToolRequest, args ExtractFeaturesParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling extractFeatures request",
		zap.Int("bytes", len(args.Source)),
		zap.String("language", args.Language))

	result, err := s.featureService.Features(ctx, []byte(args.Source), args.Language)
	if err != nil {
		s.logger.Error("Failed to extract features", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to extract features: %v", err)), nil, nil
	}
	if args.Filename != "" {
		result.Sample.Extension = vocabulary.ExtensionOf(args.Filename)
	}

	return jsonResult(result)
}

// Handler returns the streamable HTTP transport of the server
func (s *FeatureServer) Handler() http.Handler {
	return s.handler
}

// SetupHTTPRoutes mounts the MCP transport on the router at /mcp
func (s *FeatureServer) SetupHTTPRoutes(router *gin.Engine) {
	router.Any("/mcp", gin.WrapH(s.handler))
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
