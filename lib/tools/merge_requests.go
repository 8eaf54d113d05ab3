package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/simonwong/mcp-servers/lib/mcpargs"
)

// MergeRequestsServiceInterface defines the interface for merge
// request-related GitLab operations.
type MergeRequestsServiceInterface interface {
	// AddTo registers all merge request-related tools with the provided server.
	AddTo(srv ToolAdder)

	// CreateMergeRequest returns a tool for creating a new merge request.
	CreateMergeRequest() server.ServerTool
}

// NewMergeRequestsTools creates a new instance of
// MergeRequestsServiceInterface with the provided GitLab client.
func NewMergeRequestsTools(client *gitlab.Client) *MergeRequestsService {
	return &MergeRequestsService{client: client}
}

type MergeRequestsService struct {
	client *gitlab.Client
}

// AddTo registers all merge request-related tools with the provided server.
func (m *MergeRequestsService) AddTo(srv ToolAdder) {
	srv.AddTools(
		m.CreateMergeRequest(),
	)
}

type createMergeRequestArgs struct {
	ProjectID          mcpargs.ID           `mcp_desc:"ID of the project containing the source branch, either in owner/project format or the numeric project ID" mcp_required:"true"`
	Title              string               `mcp_desc:"The title of the merge request" mcp_required:"true"`
	SourceBranch       string               `mcp_desc:"The name of the branch containing the changes" mcp_required:"true"`
	TargetBranch       string               `mcp_desc:"The name of the branch the changes should be merged into" mcp_required:"true"`
	Description        string               `mcp_desc:"The description of the merge request in GitLab Flavored Markdown"`
	TargetProjectID    int                  `mcp_desc:"Numeric ID of the target project when merging across forks; defaults to the source project"`
	Labels             string               `mcp_desc:"Comma-separated label names to assign to the merge request"`
	Draft              bool                 `mcp_desc:"If true, marks the merge request as a draft"`
	RemoveSourceBranch mcpargs.OptionalBool `mcp_desc:"Flag indicating if the merge request should remove the source branch when merging"`
	Squash             mcpargs.OptionalBool `mcp_desc:"If true, squash all commits into a single commit on merge"`
	AllowCollaboration mcpargs.OptionalBool `mcp_desc:"Allow commits from members who can merge to the target branch"`
}

// CreateMergeRequest returns a ServerTool for creating a new merge request.
func (m *MergeRequestsService) CreateMergeRequest() server.ServerTool {
	return server.ServerTool{
		Handler: m.createMergeRequest,
		Tool: mcpargs.NewTool("create_merge_request", createMergeRequestArgs{},
			mcp.WithDescription("Create a new merge request in a GitLab project."),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(false),
		),
	}
}

func (m *MergeRequestsService) createMergeRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createMergeRequestArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	title := args.Title
	if args.Draft && !strings.HasPrefix(title, "Draft:") {
		title = "Draft: " + title
	}

	opt := &gitlab.CreateMergeRequestOptions{
		Title:              gitlab.Ptr(title),
		SourceBranch:       gitlab.Ptr(args.SourceBranch),
		TargetBranch:       gitlab.Ptr(args.TargetBranch),
		Labels:             newLabelOptions(args.Labels),
		RemoveSourceBranch: args.RemoveSourceBranch.Ptr(),
		Squash:             args.Squash.Ptr(),
		AllowCollaboration: args.AllowCollaboration.Ptr(),
	}

	if args.Description != "" {
		opt.Description = gitlab.Ptr(args.Description)
	}

	if args.TargetProjectID != 0 {
		opt.TargetProjectID = gitlab.Ptr(args.TargetProjectID)
	}

	mr, _, err := m.client.MergeRequests.CreateMergeRequest(args.ProjectID.Value(), opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("CreateMergeRequest(%q): %w", args.ProjectID.Value(), err)
	}

	return newToolResultJSON(mr)
}
