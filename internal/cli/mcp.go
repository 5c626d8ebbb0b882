package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/colthorp/ge-inspector-go/internal/core"
	"github.com/colthorp/ge-inspector-go/internal/item"
	"github.com/colthorp/ge-inspector-go/internal/output"
	"github.com/colthorp/ge-inspector-go/internal/query"
)

// MCP Protocol types
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type MCPToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type MCPInitializeResult struct {
	ProtocolVersion string        `json:"protocolVersion"`
	ServerInfo      MCPServerInfo `json:"serverInfo"`
	Capabilities    interface{}   `json:"capabilities"`
}

// QueryItemsParams are the parameters for the query_items tool
type QueryItemsParams struct {
	Names           []string `json:"names"`
	Regex           []string `json:"regex"`
	Category        string   `json:"category"`
	MinPrice        int64    `json:"min_price"`
	MaxPrice        int64    `json:"max_price"`
	MinVolume       int64    `json:"min_volume"`
	MaxVolume       int64    `json:"max_volume"`
	MinLimit        int64    `json:"min_limit"`
	MaxLimit        int64    `json:"max_limit"`
	MinAlch         int64    `json:"min_alch"`
	MaxAlch         int64    `json:"max_alch"`
	MinCost         int64    `json:"min_cost"`
	MaxCost         int64    `json:"max_cost"`
	ProfitableAlch  bool     `json:"profitable_alch"`
	VolumeOverLimit bool     `json:"volume_over_limit"`
	PreFilter       string   `json:"pre_filter"`
	Sort            string   `json:"sort"`
	Invert          bool     `json:"invert"`
	Members         string   `json:"members"`
	Limit           int      `json:"limit"`
}

// ItemInfoParams are the parameters for the item_info tool
type ItemInfoParams struct {
	Name        string `json:"name"`
	HistoryDays int    `json:"history_days"`
}

const defaultMCPResultLimit = 50

// mcpServer answers JSON-RPC requests read line by line.
type mcpServer struct {
	app *app
	out io.Writer
}

// serveMCP runs the MCP server until in is exhausted.
func (a *app) serveMCP(ctx context.Context, in io.Reader, out io.Writer) error {
	s := &mcpServer{app: a, out: out}

	scanner := bufio.NewScanner(in)
	// Increase buffer size for large messages
	const maxCapacity = 10 * 1024 * 1024 // 10MB
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			// For parse errors, we can't know the ID, so we log
			// but don't send a response (which would have id: null and confuse clients)
			a.logger.Error("MCP parse error", "err", err)
			continue
		}

		s.handle(ctx, &req)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

func (s *mcpServer) handle(ctx context.Context, req *MCPRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notifications don't get responses - silently ignore
		return
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	default:
		// Only send error for requests (those with an ID)
		// Notifications (no ID) are silently ignored per JSON-RPC 2.0
		if req.ID != nil {
			s.sendError(req.ID, -32601, "Method not found", req.Method)
		}
	}
}

func (s *mcpServer) handleInitialize(req *MCPRequest) {
	result := MCPInitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo: MCPServerInfo{
			Name:    "ge-inspector",
			Version: core.Version,
		},
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
	s.sendResponse(req.ID, result)
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func (s *mcpServer) handleToolsList(req *MCPRequest) {
	tools := []MCPToolInfo{
		{
			Name:        "query_items",
			Description: "Search the Grand Exchange item database.\n\nAll given conditions must hold. Maximum values of 0 mean no limit. Items whose membership is not known yet are left out when filtering by members.\n\nReturns:\n    The number of matches and up to limit matching items",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"names": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Case-insensitive substrings that must all appear in the name",
					},
					"regex": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Regular expressions that must all match the whole name",
					},
					"category": map[string]interface{}{
						"type":        "string",
						"description": "Category code or name",
						"default":     item.CategoryAllName,
					},
					"min_price":  intProp("Minimum price"),
					"max_price":  intProp("Maximum price"),
					"min_volume": intProp("Minimum daily volume (default 1)"),
					"max_volume": intProp("Maximum daily volume"),
					"min_limit":  intProp("Minimum buy limit"),
					"max_limit":  intProp("Maximum buy limit"),
					"min_alch":   intProp("Minimum high alchemy value"),
					"max_alch":   intProp("Maximum high alchemy value"),
					"min_cost":   intProp("Minimum cost of buying the full limit"),
					"max_cost":   intProp("Maximum cost of buying the full limit"),
					"profitable_alch": map[string]interface{}{
						"type":        "boolean",
						"description": "Only items that are profitable to cast high alchemy on",
					},
					"volume_over_limit": map[string]interface{}{
						"type":        "boolean",
						"description": "Only items that trade more than their buy limit",
					},
					"pre_filter": map[string]interface{}{
						"type":        "string",
						"description": "Semicolon separated reference item names to derive price and volume ranges from",
					},
					"sort": map[string]interface{}{
						"type":        "string",
						"enum":        sortModeNames(),
						"description": "Ascending sort order",
					},
					"invert": map[string]interface{}{
						"type":        "boolean",
						"description": "Reverse the result order",
					},
					"members": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"", "f2p", "p2p"},
						"description": "Membership filter",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of items to return",
						"default":     defaultMCPResultLimit,
					},
				},
			},
		},
		{
			Name:        "item_info",
			Description: "Look up one item by its exact name.\n\nArgs:\n    name: Item name (case-insensitive)\n    history_days: Days of daily price history to include, 0 for none\n\nReturns:\n    The item record and, when requested, its price history with min, max and average",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Item name",
					},
					"history_days": map[string]interface{}{
						"type":        "integer",
						"description": "Days of price history to include",
						"default":     0,
					},
				},
				"required": []string{"name"},
			},
		},
	}

	s.sendResponse(req.ID, map[string]interface{}{"tools": tools})
}

func (s *mcpServer) handleToolsCall(ctx context.Context, req *MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	switch params.Name {
	case "query_items":
		s.handleQueryItems(ctx, req.ID, params.Arguments)
	case "item_info":
		s.handleItemInfo(ctx, req.ID, params.Arguments)
	default:
		s.sendError(req.ID, -32602, "Unknown tool", params.Name)
	}
}

// flags maps tool arguments onto the command line query options.
func (p QueryItemsParams) flags() (*queryFlags, error) {
	f := defaultQueryFlags()
	f.names = p.Names
	f.regexes = p.Regex
	if p.Category != "" {
		f.category = p.Category
	}
	f.minPrice, f.maxPrice = p.MinPrice, p.MaxPrice
	if p.MinVolume > 0 {
		f.minVolume = p.MinVolume
	}
	f.maxVolume = p.MaxVolume
	f.minLimit, f.maxLimit = p.MinLimit, p.MaxLimit
	f.minAlch, f.maxAlch = p.MinAlch, p.MaxAlch
	f.minCost, f.maxCost = p.MinCost, p.MaxCost
	f.profitableAlch = p.ProfitableAlch
	f.volumeOverLimit = p.VolumeOverLimit
	f.preFilter = p.PreFilter
	f.sort = p.Sort
	f.invert = p.Invert

	switch strings.ToLower(p.Members) {
	case "":
	case "f2p":
		f.f2p = true
	case "p2p":
		f.p2p = true
	default:
		return nil, fmt.Errorf("members must be f2p or p2p, got %q", p.Members)
	}
	return f, nil
}

func (s *mcpServer) handleQueryItems(ctx context.Context, id interface{}, argsJSON json.RawMessage) {
	var args QueryItemsParams
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		s.sendToolError(id, fmt.Sprintf("Invalid arguments: %v", err))
		return
	}
	if args.Limit <= 0 {
		args.Limit = defaultMCPResultLimit
	}

	f, err := args.flags()
	if err != nil {
		s.sendToolError(id, err.Error())
		return
	}
	req, err := f.request(s.app.cfg.FuzzFactor, false)
	if err != nil {
		s.sendToolError(id, err.Error())
		return
	}
	members, _ := f.members()

	items, err := s.app.service.Run(ctx, req)
	if err != nil {
		s.sendToolError(id, fmt.Sprintf("Query failed: %v", err))
		return
	}
	items = query.FilterMembers(items, members)

	total := len(items)
	if len(items) > args.Limit {
		items = items[:args.Limit]
	}

	s.sendToolResult(id, map[string]interface{}{
		"count":    total,
		"returned": len(items),
		"items":    items,
	})
}

func (s *mcpServer) handleItemInfo(ctx context.Context, id interface{}, argsJSON json.RawMessage) {
	var args ItemInfoParams
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		s.sendToolError(id, fmt.Sprintf("Invalid arguments: %v", err))
		return
	}
	if strings.TrimSpace(args.Name) == "" {
		s.sendToolError(id, "name is required")
		return
	}

	it, err := s.app.findItem(ctx, args.Name)
	if err != nil {
		s.sendToolResult(id, map[string]interface{}{
			"error": err.Error(),
			"name":  args.Name,
		})
		return
	}

	result := map[string]interface{}{"item": it}
	if args.HistoryDays > 0 {
		prices, err := s.app.store.PriceHistory(ctx, &it, args.HistoryDays)
		if err != nil {
			s.sendToolError(id, fmt.Sprintf("Price history failed: %v", err))
			return
		}
		history := map[string]interface{}{"prices": prices}
		if stats, ok := output.Summarize(prices); ok {
			history["min"] = stats.Min
			history["max"] = stats.Max
			history["average"] = stats.Average
		}
		result["history"] = history
		it.PriceHistory = nil
		result["item"] = it
	}

	s.sendToolResult(id, result)
}

func (s *mcpServer) sendResponse(id interface{}, result interface{}) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	data, _ := json.Marshal(resp)
	fmt.Fprintln(s.out, string(data))
}

func (s *mcpServer) sendError(id interface{}, code int, message, data string) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	data2, _ := json.Marshal(resp)
	fmt.Fprintln(s.out, string(data2))
}

func (s *mcpServer) sendToolResult(id interface{}, result interface{}) {
	s.sendResponse(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": mustMarshal(result),
			},
		},
	})
}

func (s *mcpServer) sendToolError(id interface{}, message string) {
	s.sendResponse(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": message,
			},
		},
		"isError": true,
	})
}

func mustMarshal(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}
