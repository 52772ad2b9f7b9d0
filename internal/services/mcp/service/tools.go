package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/dicenotation/internal/services/mcp/domain"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResourceTemplate(*mcp.ResourceTemplate, mcp.ResourceHandler)
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResourceTemplate(resourceTemplate *mcp.ResourceTemplate, handler mcp.ResourceHandler) {
	r.server.AddResourceTemplate(resourceTemplate, handler)
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.RollExpressionInput, domain.RollResult](),
	newMCPToolRegistrar[domain.ReplayRollInput, domain.RollResult](),
	newMCPToolRegistrar[domain.ListRollsInput, domain.ListRollsResult](),
	newMCPToolRegistrar[domain.NotationRulesInput, domain.NotationRulesResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func registerRollTools(registrar mcpRegistrationTarget, client rollv1.RollServiceClient) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.RollExpressionTool(), handler: domain.RollExpressionHandler(client)},
		{tool: domain.ReplayRollTool(), handler: domain.ReplayRollHandler(client)},
		{tool: domain.ListRollsTool(), handler: domain.ListRollsHandler(client)},
		{tool: domain.NotationRulesTool(), handler: domain.NotationRulesHandler(client)},
	}
	for _, registration := range registrations {
		if err := registerTool(registrar, registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}

// registerRollResources registers readable roll log and notation resources.
func registerRollResources(registrar mcpRegistrationTarget, client rollv1.RollServiceClient) {
	registrar.AddResource(domain.RecentRollsResource(), domain.RecentRollsResourceHandler(client))
	registrar.AddResource(domain.NotationRulesResource(), domain.NotationRulesResourceHandler(client))
	registrar.AddResourceTemplate(domain.RollResourceTemplate(), domain.RollResourceHandler(client))
}
