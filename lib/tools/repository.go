package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/simonwong/mcp-servers/lib/mcpargs"
)

// RepositoryServiceInterface defines the interface for repository tree
// operations.
type RepositoryServiceInterface interface {
	// AddTo registers all repository tree-related tools with the provided server.
	AddTo(srv ToolAdder)

	// GetRepositoryTree returns a tool for listing repository files and directories.
	GetRepositoryTree() server.ServerTool
}

// NewRepositoryTools creates a new instance of RepositoryServiceInterface
// with the provided GitLab client.
func NewRepositoryTools(client *gitlab.Client) *RepositoryService {
	return &RepositoryService{client: client}
}

type RepositoryService struct {
	client *gitlab.Client
}

// AddTo registers all repository tree-related tools with the provided server.
func (r *RepositoryService) AddTo(srv ToolAdder) {
	srv.AddTools(
		r.GetRepositoryTree(),
	)
}

type getRepositoryTreeArgs struct {
	ProjectID mcpargs.ID `mcp_desc:"ID of the project either in owner/project format or the numeric project ID" mcp_required:"true"`
	Path      string     `mcp_desc:"The path inside the repository to list files from; defaults to the repository root"`
	Ref       string     `mcp_desc:"Branch or tag to list files from; defaults to the project's default branch"`
	Recursive bool       `mcp_desc:"When set to true, lists files in subdirectories recursively instead of just the 'path' level"`
}

// GetRepositoryTree returns a ServerTool for listing repository files and
// directories. Pagination is handled internally, so the result always covers
// the whole listing.
func (r *RepositoryService) GetRepositoryTree() server.ServerTool {
	return server.ServerTool{
		Handler: r.getRepositoryTree,
		Tool: mcpargs.NewTool("get_repository_tree", getRepositoryTreeArgs{},
			mcp.WithDescription("Get a list of repository files and directories in a project. The returned JSON uses Git terminology, e.g. calling files 'blob' and directories 'tree'."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
	}
}

func (r *RepositoryService) getRepositoryTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getRepositoryTreeArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	opt := &gitlab.ListTreeOptions{
		ListOptions: gitlab.ListOptions{
			PerPage: maxPerPage,
		},
		Recursive: gitlab.Ptr(args.Recursive),
	}

	if args.Path != "" {
		opt.Path = gitlab.Ptr(args.Path)
	}

	if args.Ref != "" {
		opt.Ref = gitlab.Ptr(args.Ref)
	}

	tree, err := collectAll(ctx,
		func(o *gitlab.ListTreeOptions, reqOpts ...gitlab.RequestOptionFunc) ([]*gitlab.TreeNode, *gitlab.Response, error) {
			return r.client.Repositories.ListTree(args.ProjectID.Value(), o, reqOpts...)
		},
		opt,
		func(o *gitlab.ListTreeOptions, page int) { o.Page = page },
		0)
	if err != nil {
		return nil, fmt.Errorf("ListTree(%q): %w", args.ProjectID.Value(), err)
	}

	return newToolResultJSON(tree)
}
