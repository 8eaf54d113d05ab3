package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/simonwong/mcp-servers/lib/mcpargs"
)

// IssuesServiceInterface defines the interface for issue-related GitLab
// operations.
type IssuesServiceInterface interface {
	// AddTo registers all issue-related tools with the provided server.
	AddTo(srv ToolAdder)

	// CreateIssue returns a tool for creating a new issue in a project.
	CreateIssue() server.ServerTool
}

// NewIssuesTools creates a new instance of IssuesServiceInterface with the
// provided GitLab client.
func NewIssuesTools(client *gitlab.Client) *IssuesService {
	return &IssuesService{client: client}
}

type IssuesService struct {
	client *gitlab.Client
}

// AddTo registers all issue-related tools with the provided server.
func (i *IssuesService) AddTo(srv ToolAdder) {
	srv.AddTools(
		i.CreateIssue(),
	)
}

type createIssueArgs struct {
	ProjectID    mcpargs.ID `mcp_desc:"ID of the project either in owner/project format or the numeric project ID" mcp_required:"true"`
	Title        string     `mcp_desc:"The title of the issue to create" mcp_required:"true"`
	Description  string     `mcp_desc:"The description of the issue in GitLab Flavored Markdown"`
	AssigneeIDs  string     `mcp_desc:"Comma-separated list of user IDs to assign the issue to"`
	MilestoneID  int        `mcp_desc:"The ID of a milestone to assign the issue to"`
	Labels       string     `mcp_desc:"Comma-separated label names to assign to the new issue"`
	Confidential bool       `mcp_desc:"Set to true to make the issue confidential"`
}

// CreateIssue returns a ServerTool for creating a new issue.
func (i *IssuesService) CreateIssue() server.ServerTool {
	return server.ServerTool{
		Handler: i.createIssue,
		Tool: mcpargs.NewTool("create_issue", createIssueArgs{},
			mcp.WithDescription("Create a new issue in a GitLab project."),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(false),
		),
	}
}

func (i *IssuesService) createIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createIssueArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	opt := &gitlab.CreateIssueOptions{
		Title:  gitlab.Ptr(args.Title),
		Labels: newLabelOptions(args.Labels),
	}

	if args.Description != "" {
		opt.Description = gitlab.Ptr(args.Description)
	}

	assigneeIDs, err := parseIDList(args.AssigneeIDs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid 'assignee_ids': %v", err)), nil
	}

	if len(assigneeIDs) > 0 {
		opt.AssigneeIDs = &assigneeIDs
	}

	if args.MilestoneID != 0 {
		opt.MilestoneID = gitlab.Ptr(args.MilestoneID)
	}

	if args.Confidential {
		opt.Confidential = gitlab.Ptr(true)
	}

	issue, _, err := i.client.Issues.CreateIssue(args.ProjectID.Value(), opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("CreateIssue(%q): %w", args.ProjectID.Value(), err)
	}

	return newToolResultJSON(issue)
}

// parseIDList parses a comma-separated list of numeric IDs.
//
//nolint:err113 // The error is reported to the caller as an inline tool error.
func parseIDList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	var ids []int

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a numeric ID", part)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
