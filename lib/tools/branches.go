package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/simonwong/mcp-servers/lib/mcpargs"
)

// BranchesServiceInterface defines the interface for branch-related GitLab
// operations.
type BranchesServiceInterface interface {
	// AddTo registers all branch-related tools with the provided server.
	AddTo(srv ToolAdder)

	// CreateBranch returns a tool for creating a new branch.
	CreateBranch() server.ServerTool
}

// NewBranchesTools creates a new instance of BranchesServiceInterface with
// the provided GitLab client.
func NewBranchesTools(client *gitlab.Client) *BranchesService {
	return &BranchesService{client: client}
}

type BranchesService struct {
	client *gitlab.Client
}

// AddTo registers all branch-related tools with the provided server.
func (b *BranchesService) AddTo(srv ToolAdder) {
	srv.AddTools(
		b.CreateBranch(),
	)
}

type createBranchArgs struct {
	ProjectID mcpargs.ID `mcp_desc:"ID of the project either in owner/project format or the numeric project ID" mcp_required:"true"`
	Branch    string     `mcp_desc:"Name of the new branch" mcp_required:"true"`
	Ref       string     `mcp_desc:"Branch name or commit SHA to create the branch from; defaults to the project's default branch"`
}

// CreateBranch returns a ServerTool for creating a branch. When no ref is
// given, the branch starts from the project's current default branch.
func (b *BranchesService) CreateBranch() server.ServerTool {
	return server.ServerTool{
		Handler: b.createBranch,
		Tool: mcpargs.NewTool("create_branch", createBranchArgs{},
			mcp.WithDescription("Create a new branch in a GitLab project."),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(false),
		),
	}
}

func (b *BranchesService) createBranch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createBranchArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	ref := args.Ref
	if ref == "" {
		project, _, err := b.client.Projects.GetProject(args.ProjectID.Value(), nil, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("GetProject(%q): %w", args.ProjectID.Value(), err)
		}

		if project.DefaultBranch == "" {
			return mcp.NewToolResultError("the project has no default branch; provide 'ref' explicitly"), nil
		}

		ref = project.DefaultBranch
	}

	opt := &gitlab.CreateBranchOptions{
		Branch: gitlab.Ptr(args.Branch),
		Ref:    gitlab.Ptr(ref),
	}

	branch, _, err := b.client.Branches.CreateBranch(args.ProjectID.Value(), opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("CreateBranch(%q, %q): %w", args.ProjectID.Value(), args.Branch, err)
	}

	return newToolResultJSON(branch)
}
