// Package tools exposes GitLab project-management operations as MCP tools.
// Each tool advertises a JSON input schema derived from its argument struct,
// validates the caller's arguments against it, issues the corresponding
// GitLab API call through the official client, and returns the API result as
// the tool result. The package keeps no state of its own; every resource it
// touches is owned by GitLab.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const maxPerPage = 100

// ToolAdder is the subset of server.MCPServer that tool registration needs.
// mcptest.Server satisfies it as well.
type ToolAdder interface {
	AddTools(tools ...server.ServerTool)
}

// Tools bundles the GitLab tool services and registers them with an MCP server.
type Tools struct {
	// Branches provides the branch creation tool.
	Branches BranchesServiceInterface

	// Files provides the repository file tools.
	Files FilesServiceInterface

	// Issues provides the issue creation tool.
	Issues IssuesServiceInterface

	// MergeRequests provides the merge request creation tool.
	MergeRequests MergeRequestsServiceInterface

	// Projects provides project search, creation, and fork tools.
	Projects ProjectsServiceInterface

	// Repositories provides the repository tree tool.
	Repositories RepositoryServiceInterface

	readOnly bool
}

// New creates a new instance of Tools with the provided GitLab client.
// When readOnly is true, AddTo registers only tools that never modify the
// GitLab instance.
func New(client *gitlab.Client, readOnly bool) *Tools {
	return &Tools{
		Branches:      NewBranchesTools(client),
		Files:         NewFilesTools(client),
		Issues:        NewIssuesTools(client),
		MergeRequests: NewMergeRequestsTools(client),
		Projects:      NewProjectsTools(client),
		Repositories:  NewRepositoryTools(client),
		readOnly:      readOnly,
	}
}

// AddTo registers the GitLab tools with the provided server.
func (s *Tools) AddTo(srv ToolAdder) {
	if s.readOnly {
		srv.AddTools(
			s.Files.GetFileContents(),
			s.Projects.SearchRepositories(),
			s.Repositories.GetRepositoryTree(),
		)

		return
	}

	s.Branches.AddTo(srv)
	s.Files.AddTo(srv)
	s.Issues.AddTo(srv)
	s.MergeRequests.AddTo(srv)
	s.Projects.AddTo(srv)
	s.Repositories.AddTo(srv)
}

// newToolResultJSON encodes the provided value as JSON and returns it as a
// tool result, so that every tool reports API objects in the same shape.
func newToolResultJSON(v any) (*mcp.CallToolResult, error) {
	// A nil slice would encode as "null"; report an empty list instead.
	if value := reflect.ValueOf(v); value.Kind() == reflect.Slice && value.IsNil() {
		return mcp.NewToolResultText("[]"), nil
	}

	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding to JSON: %w", err)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// newListOptions initializes a ListOptions struct populated with default
// values and the provided ordering arguments.
func newListOptions(orderBy, sort string) gitlab.ListOptions {
	return gitlab.ListOptions{
		PerPage: maxPerPage,
		OrderBy: orderBy,
		Sort:    sort,
	}
}

// newLabelOptions converts a comma-separated list of label names into the
// options type expected by the GitLab client. Returns nil when no label
// remains after trimming, which leaves the option unset.
func newLabelOptions(labels string) *gitlab.LabelOptions {
	if labels == "" {
		return nil
	}

	var labelOpts gitlab.LabelOptions

	for _, label := range strings.Split(labels, ",") {
		if label = strings.TrimSpace(label); label != "" {
			labelOpts = append(labelOpts, label)
		}
	}

	if len(labelOpts) == 0 {
		return nil
	}

	return &labelOpts
}

// collectAll fetches pages produced by call until the API reports no next
// page or limit items have been collected. A limit of zero collects
// everything. setPage advances the page number inside the options struct
// between calls.
func collectAll[T any, O any](
	ctx context.Context,
	call func(*O, ...gitlab.RequestOptionFunc) ([]T, *gitlab.Response, error),
	opts *O,
	setPage func(*O, int),
	limit int,
) ([]T, error) {
	var all []T

	for {
		items, resp, err := call(opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}

		all = append(all, items...)

		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}

		if resp.NextPage == 0 {
			return all, nil
		}

		setPage(opts, resp.NextPage)
	}
}
