package tools

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/simonwong/mcp-servers/lib/mcpargs"
)

// FilesServiceInterface defines the interface for repository file operations.
// It covers the full file lifecycle: reading, writing, renaming, deleting,
// and committing several files at once.
type FilesServiceInterface interface {
	// AddTo registers all file-related tools with the provided server.
	AddTo(srv ToolAdder)

	// CreateOrUpdateFile returns a tool for writing a single file on a branch.
	CreateOrUpdateFile() server.ServerTool

	// GetFileContents returns a tool for retrieving the raw contents of a file.
	GetFileContents() server.ServerTool

	// DeleteFile returns a tool for removing a file with a commit.
	DeleteFile() server.ServerTool

	// PushFiles returns a tool for committing multiple files in one commit.
	PushFiles() server.ServerTool
}

// NewFilesTools creates a new instance of FilesServiceInterface with the
// provided GitLab client.
func NewFilesTools(client *gitlab.Client) *FilesService {
	return &FilesService{client: client}
}

type FilesService struct {
	client *gitlab.Client
}

// AddTo registers all file-related tools with the provided server.
func (f *FilesService) AddTo(srv ToolAdder) {
	srv.AddTools(
		f.CreateOrUpdateFile(),
		f.GetFileContents(),
		f.DeleteFile(),
		f.PushFiles(),
	)
}

type createOrUpdateFileArgs struct {
	ProjectID     mcpargs.ID `mcp_desc:"ID of the project either in owner/project format or the numeric project ID" mcp_required:"true"`
	FilePath      string     `mcp_desc:"Path of the file inside the repository, e.g. 'docs/README.md'" mcp_required:"true"`
	Content       string     `mcp_desc:"New contents of the file" mcp_required:"true"`
	CommitMessage string     `mcp_desc:"Commit message describing the change" mcp_required:"true"`
	Branch        string     `mcp_desc:"Name of the branch to commit to" mcp_required:"true"`
	PreviousPath  string     `mcp_desc:"Current path of the file when moving or renaming it; the commit moves the file to 'file_path'"`
}

// CreateOrUpdateFile returns a ServerTool for writing a single file. The
// file is created when it does not exist on the branch yet and updated
// otherwise, so callers do not need to know whether the path exists.
func (f *FilesService) CreateOrUpdateFile() server.ServerTool {
	return server.ServerTool{
		Handler: f.createOrUpdateFile,
		Tool: mcpargs.NewTool("create_or_update_file", createOrUpdateFileArgs{},
			mcp.WithDescription("Create a new file in a GitLab project, or update it when it already exists. Set 'previous_path' to move or rename a file in the same commit."),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		),
	}
}

func (f *FilesService) createOrUpdateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createOrUpdateFileArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	// A rename is always an update of the new path; probing the new path
	// would report 404 and wrongly route the request to CreateFile.
	update := args.PreviousPath != ""

	if !update {
		exists, err := f.fileExists(ctx, args.ProjectID.Value(), args.FilePath, args.Branch)
		if err != nil {
			return nil, err
		}

		update = exists
	}

	if update {
		opt := &gitlab.UpdateFileOptions{
			Branch:        gitlab.Ptr(args.Branch),
			CommitMessage: gitlab.Ptr(args.CommitMessage),
			Content:       gitlab.Ptr(args.Content),
		}
		if args.PreviousPath != "" {
			opt.PreviousPath = gitlab.Ptr(args.PreviousPath)
		}

		info, _, err := f.client.RepositoryFiles.UpdateFile(args.ProjectID.Value(), args.FilePath, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("UpdateFile(%q, %q): %w", args.ProjectID.Value(), args.FilePath, err)
		}

		return newToolResultJSON(info)
	}

	opt := &gitlab.CreateFileOptions{
		Branch:        gitlab.Ptr(args.Branch),
		CommitMessage: gitlab.Ptr(args.CommitMessage),
		Content:       gitlab.Ptr(args.Content),
	}

	info, _, err := f.client.RepositoryFiles.CreateFile(args.ProjectID.Value(), args.FilePath, opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("CreateFile(%q, %q): %w", args.ProjectID.Value(), args.FilePath, err)
	}

	return newToolResultJSON(info)
}

// fileExists reports whether filePath exists on ref. Only a 404 response is
// treated as "does not exist"; any other failure is returned to the caller.
func (f *FilesService) fileExists(ctx context.Context, pid any, filePath, ref string) (bool, error) {
	opt := &gitlab.GetFileOptions{Ref: gitlab.Ptr(ref)}

	_, resp, err := f.client.RepositoryFiles.GetFile(pid, filePath, opt, gitlab.WithContext(ctx))
	if err == nil {
		return true, nil
	}

	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	return false, fmt.Errorf("GetFile(%q, %q): %w", pid, filePath, err)
}

type getFileContentsArgs struct {
	ProjectID mcpargs.ID `mcp_desc:"ID of the project either in owner/project format or the numeric project ID" mcp_required:"true"`
	FilePath  string     `mcp_desc:"Path of the file inside the repository" mcp_required:"true"`
	Ref       string     `mcp_desc:"Branch, tag, or commit SHA to read the file from; defaults to the project's default branch"`
}

// GetFileContents returns a ServerTool for retrieving the raw contents of a
// single file.
func (f *FilesService) GetFileContents() server.ServerTool {
	return server.ServerTool{
		Handler: f.getFileContents,
		Tool: mcpargs.NewTool("get_file_contents", getFileContentsArgs{},
			mcp.WithDescription("Get the contents of a single file from a GitLab repository."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
	}
}

func (f *FilesService) getFileContents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getFileContentsArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	opt := gitlab.GetRawFileOptions{}
	if args.Ref != "" {
		opt.Ref = gitlab.Ptr(args.Ref)
	}

	contents, _, err := f.client.RepositoryFiles.GetRawFile(args.ProjectID.Value(), args.FilePath, &opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("GetRawFile(%q, %q, ref=%q): %w", args.ProjectID.Value(), args.FilePath, args.Ref, err)
	}

	return mcp.NewToolResultText(string(contents)), nil
}

type deleteFileArgs struct {
	ProjectID     mcpargs.ID `mcp_desc:"ID of the project either in owner/project format or the numeric project ID" mcp_required:"true"`
	FilePath      string     `mcp_desc:"Path of the file to delete" mcp_required:"true"`
	Branch        string     `mcp_desc:"Name of the branch to commit the deletion to" mcp_required:"true"`
	CommitMessage string     `mcp_desc:"Commit message describing the deletion" mcp_required:"true"`
}

// DeleteFile returns a ServerTool for removing a file from a branch with a
// commit.
func (f *FilesService) DeleteFile() server.ServerTool {
	return server.ServerTool{
		Handler: f.deleteFile,
		Tool: mcpargs.NewTool("delete_file", deleteFileArgs{},
			mcp.WithDescription("Delete a file from a GitLab repository with a commit."),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		),
	}
}

func (f *FilesService) deleteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args deleteFileArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	opt := &gitlab.DeleteFileOptions{
		Branch:        gitlab.Ptr(args.Branch),
		CommitMessage: gitlab.Ptr(args.CommitMessage),
	}

	if _, err := f.client.RepositoryFiles.DeleteFile(args.ProjectID.Value(), args.FilePath, opt, gitlab.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("DeleteFile(%q, %q): %w", args.ProjectID.Value(), args.FilePath, err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s was deleted from branch %s", args.FilePath, args.Branch)), nil
}

type pushFilesArgs struct {
	ProjectID     mcpargs.ID `mcp_desc:"ID of the project either in owner/project format or the numeric project ID" mcp_required:"true"`
	Branch        string     `mcp_desc:"Name of the branch to commit to" mcp_required:"true"`
	CommitMessage string     `mcp_desc:"Commit message describing the change" mcp_required:"true"`
	Files         fileList   `mcp_desc:"List of files to commit; each entry is an object with 'file_path' and 'content' properties" mcp_required:"true"`
}

// PushFiles returns a ServerTool for committing multiple files in a single
// commit. Files that already exist on the branch are updated, others are
// created.
func (f *FilesService) PushFiles() server.ServerTool {
	return server.ServerTool{
		Handler: f.pushFiles,
		Tool: mcpargs.NewTool("push_files", pushFilesArgs{},
			mcp.WithDescription("Commit multiple files to a GitLab repository in a single commit."),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(false),
		),
	}
}

func (f *FilesService) pushFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args pushFilesArgs
	if err := mcpargs.Unmarshal(request.GetArguments(), &args); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if len(args.Files) == 0 {
		return mcp.NewToolResultError("'files' must contain at least one file"), nil
	}

	actions := make([]*gitlab.CommitActionOptions, 0, len(args.Files))

	for _, file := range args.Files {
		action := gitlab.FileCreate

		exists, err := f.fileExists(ctx, args.ProjectID.Value(), file.path, args.Branch)
		if err != nil {
			return nil, err
		}

		if exists {
			action = gitlab.FileUpdate
		}

		actions = append(actions, &gitlab.CommitActionOptions{
			Action:   gitlab.Ptr(action),
			FilePath: gitlab.Ptr(file.path),
			Content:  gitlab.Ptr(file.content),
		})
	}

	opt := &gitlab.CreateCommitOptions{
		Branch:        gitlab.Ptr(args.Branch),
		CommitMessage: gitlab.Ptr(args.CommitMessage),
		Actions:       actions,
	}

	commit, _, err := f.client.Commits.CreateCommit(args.ProjectID.Value(), opt, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("CreateCommit(%q): %w", args.ProjectID.Value(), err)
	}

	return newToolResultJSON(commit)
}

type commitFile struct {
	path    string
	content string
}

// fileList decodes the "files" argument of push_files. Implementing the
// mcpargs interfaces keeps the argument a proper JSON array in the
// advertised schema while validating each entry during unmarshaling.
type fileList []commitFile

// Interface tests.
var _ mcpargs.Marshaler = fileList{}
var _ mcpargs.Unmarshaler = &fileList{}

// Marshal implements the mcpargs.Marshaler interface.
func (fileList) Marshal() mcpargs.MCPType {
	return mcpargs.TypeArray
}

// Unmarshal implements the mcpargs.Unmarshaler interface.
//
//nolint:err113 // Errors are wrapped by mcpargs.Unmarshal.
func (f *fileList) Unmarshal(v any) error {
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("expected a list of files, got %T", v)
	}

	files := make(fileList, 0, len(items))

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("files[%d]: expected an object, got %T", i, item)
		}

		path, _ := obj["file_path"].(string)
		if path == "" {
			return fmt.Errorf("files[%d]: 'file_path' must be a non-empty string", i)
		}

		content, ok := obj["content"].(string)
		if !ok {
			return fmt.Errorf("files[%d]: 'content' must be a string", i)
		}

		files = append(files, commitFile{path: path, content: content})
	}

	*f = files

	return nil
}
