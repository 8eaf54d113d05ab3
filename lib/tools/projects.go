package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/simonwong/mcp-servers/lib/mcpargs"
)

// ProjectsServiceInterface defines the interface for project-level GitLab
// operations: searching for projects, creating them, and forking them.
type ProjectsServiceInterface interface {
	// AddTo registers all project-related tools with the provided server.
	AddTo(srv ToolAdder)

	// SearchRepositories returns a tool for searching projects visible to the token.
	SearchRepositories() server.ServerTool

	// CreateRepository returns a tool for creating a new project.
	CreateRepository() server.ServerTool

	// ForkRepository returns a tool for forking a project.
	ForkRepository() server.ServerTool
}

// NewProjectsTools creates a new instance of ProjectsServiceInterface with
// the provided GitLab client.
func NewProjectsTools(client *gitlab.Client) *ProjectsService {
	return &ProjectsService{client: client}
}

type ProjectsService struct {
	client *gitlab.Client
}

const defaultProjectsLimit = 1000

// AddTo registers all project-related tools with the provided server.
func (p *ProjectsService) AddTo(srv ToolAdder) {
	srv.AddTools(
		p.SearchRepositories(),
		p.CreateRepository(),
		p.ForkRepository(),
	)
}

type searchRepositoriesArgs struct {
	Search    string `mcp_desc:"Search query matched against project names and paths" mcp_required:"true"`
	OrderBy   string `mcp_desc:"Sort projects by the selected field. Default is 'created_at'" mcp_enum:"id,name,path,created_at,updated_at,last_activity_at"`
	SortOrder string `mcp_desc:"Sort order to use. Default is 'desc'" mcp_enum:"asc,desc"`
	Limit     int    `mcp_desc:"The maximum number of projects to return. Defaults to 1000."`
}

// SearchRepositories returns a ServerTool for searching projects. The search
// covers every project visible to the configured token.
func (p *ProjectsService) SearchRepositories() server.ServerTool {
	return server.ServerTool{
		Handler: p.searchRepositories,
		Tool: mcpargs.NewTool("search_repositories", searchRepositoriesArgs{},
			mcp.WithDescription("Search for GitLab projects by name or path."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
	}
}

func (p *ProjectsService) searchRepositories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args searchRepositoriesArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultProjectsLimit
	}

	opt := &gitlab.ListProjectsOptions{
		ListOptions: newListOptions(args.OrderBy, args.SortOrder),
		Search:      gitlab.Ptr(args.Search),
	}

	projects, err := collectAll(ctx,
		func(o *gitlab.ListProjectsOptions, reqOpts ...gitlab.RequestOptionFunc) ([]*gitlab.Project, *gitlab.Response, error) {
			return p.client.Projects.ListProjects(o, reqOpts...)
		},
		opt,
		func(o *gitlab.ListProjectsOptions, page int) { o.Page = page },
		limit)
	if err != nil {
		return nil, fmt.Errorf("ListProjects(%q): %w", args.Search, err)
	}

	return newToolResultJSON(projects)
}

type createRepositoryArgs struct {
	Name                 string `mcp_desc:"Name of the new project" mcp_required:"true"`
	Description          string `mcp_desc:"Short description of the project"`
	Visibility           string `mcp_desc:"Visibility level of the project. Defaults to the instance default, usually 'private'" mcp_enum:"private,internal,public"`
	InitializeWithReadme bool   `mcp_desc:"If true, creates the project with an initial README.md so it has a default branch"`
}

// CreateRepository returns a ServerTool for creating a new project in the
// caller's namespace.
func (p *ProjectsService) CreateRepository() server.ServerTool {
	return server.ServerTool{
		Handler: p.createRepository,
		Tool: mcpargs.NewTool("create_repository", createRepositoryArgs{},
			mcp.WithDescription("Create a new GitLab project."),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(false),
		),
	}
}

func (p *ProjectsService) createRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createRepositoryArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	opt := &gitlab.CreateProjectOptions{
		Name:                 gitlab.Ptr(args.Name),
		InitializeWithReadme: gitlab.Ptr(args.InitializeWithReadme),
	}

	if args.Description != "" {
		opt.Description = gitlab.Ptr(args.Description)
	}

	if args.Visibility != "" {
		opt.Visibility = gitlab.Ptr(gitlab.VisibilityValue(args.Visibility))
	}

	project, _, err := p.client.Projects.CreateProject(opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("CreateProject(%q): %w", args.Name, err)
	}

	return newToolResultJSON(project)
}

type forkRepositoryArgs struct {
	ProjectID mcpargs.ID `mcp_desc:"ID of the project to fork, either in owner/project format or the numeric project ID" mcp_required:"true"`
	Namespace string     `mcp_desc:"Full path of the namespace to fork into; defaults to the caller's personal namespace"`
}

// ForkRepository returns a ServerTool for forking a project, optionally into
// a different namespace.
func (p *ProjectsService) ForkRepository() server.ServerTool {
	return server.ServerTool{
		Handler: p.forkRepository,
		Tool: mcpargs.NewTool("fork_repository", forkRepositoryArgs{},
			mcp.WithDescription("Fork a GitLab project into your namespace or a group."),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(false),
		),
	}
}

func (p *ProjectsService) forkRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args forkRepositoryArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	opt := &gitlab.ForkProjectOptions{}
	if args.Namespace != "" {
		opt.NamespacePath = gitlab.Ptr(args.Namespace)
	}

	project, _, err := p.client.Projects.ForkProject(args.ProjectID.Value(), opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ForkProject(%q): %w", args.ProjectID.Value(), err)
	}

	return newToolResultJSON(project)
}
