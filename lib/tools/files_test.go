package tools

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/mcptest"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	glabtest "gitlab.com/gitlab-org/api/client-go/testing"
)

func TestCreateOrUpdateFile(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		setupMock func(*glabtest.MockRepositoryFilesServiceInterface)
		wantError bool
		want      *gitlab.FileInfo
	}{
		{
			name: "create a new file",
			args: map[string]any{
				"project_id":     "42",
				"file_path":      "docs/README.md",
				"content":        "# Hello",
				"commit_message": "Add README",
				"branch":         "main",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					GetFile(gomock.Eq(42), gomock.Eq("docs/README.md"), gomock.Any(), gomock.Any()).
					Return(nil, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusNotFound},
					}, fmt.Errorf("404 Not Found"))

				mockFiles.EXPECT().
					CreateFile(gomock.Eq(42), gomock.Eq("docs/README.md"), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ string, opt *gitlab.CreateFileOptions, _ ...gitlab.RequestOptionFunc) (*gitlab.FileInfo, *gitlab.Response, error) {
						if opt.Content == nil || *opt.Content != "# Hello" {
							t.Errorf("opt.Content = %v, want '# Hello'", opt.Content)
						}

						if opt.Branch == nil || *opt.Branch != "main" {
							t.Errorf("opt.Branch = %v, want 'main'", opt.Branch)
						}

						return &gitlab.FileInfo{
								FilePath: "docs/README.md",
								Branch:   "main",
							}, &gitlab.Response{
								Response: &http.Response{StatusCode: http.StatusCreated},
							}, nil
					})
			},
			want: &gitlab.FileInfo{
				FilePath: "docs/README.md",
				Branch:   "main",
			},
		},
		{
			name: "update an existing file",
			args: map[string]any{
				"project_id":     "42",
				"file_path":      "docs/README.md",
				"content":        "# Updated",
				"commit_message": "Update README",
				"branch":         "main",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					GetFile(gomock.Eq(42), gomock.Eq("docs/README.md"), gomock.Any(), gomock.Any()).
					Return(&gitlab.File{FilePath: "docs/README.md"}, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusOK},
					}, nil)

				mockFiles.EXPECT().
					UpdateFile(gomock.Eq(42), gomock.Eq("docs/README.md"), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ string, opt *gitlab.UpdateFileOptions, _ ...gitlab.RequestOptionFunc) (*gitlab.FileInfo, *gitlab.Response, error) {
						if opt.Content == nil || *opt.Content != "# Updated" {
							t.Errorf("opt.Content = %v, want '# Updated'", opt.Content)
						}

						if opt.PreviousPath != nil {
							t.Errorf("opt.PreviousPath = %q, want nil", *opt.PreviousPath)
						}

						return &gitlab.FileInfo{
								FilePath: "docs/README.md",
								Branch:   "main",
							}, &gitlab.Response{
								Response: &http.Response{StatusCode: http.StatusOK},
							}, nil
					})
			},
			want: &gitlab.FileInfo{
				FilePath: "docs/README.md",
				Branch:   "main",
			},
		},
		{
			name: "rename skips the existence probe",
			args: map[string]any{
				"project_id":     "group/project",
				"file_path":      "docs/NEW.md",
				"previous_path":  "docs/OLD.md",
				"content":        "# Moved",
				"commit_message": "Rename OLD.md",
				"branch":         "main",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					UpdateFile(gomock.Eq("group/project"), gomock.Eq("docs/NEW.md"), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ string, opt *gitlab.UpdateFileOptions, _ ...gitlab.RequestOptionFunc) (*gitlab.FileInfo, *gitlab.Response, error) {
						if opt.PreviousPath == nil || *opt.PreviousPath != "docs/OLD.md" {
							t.Errorf("opt.PreviousPath = %v, want 'docs/OLD.md'", opt.PreviousPath)
						}

						return &gitlab.FileInfo{
								FilePath: "docs/NEW.md",
								Branch:   "main",
							}, &gitlab.Response{
								Response: &http.Response{StatusCode: http.StatusOK},
							}, nil
					})
			},
			want: &gitlab.FileInfo{
				FilePath: "docs/NEW.md",
				Branch:   "main",
			},
		},
		{
			name: "existence probe fails",
			args: map[string]any{
				"project_id":     "42",
				"file_path":      "docs/README.md",
				"content":        "# Hello",
				"commit_message": "Add README",
				"branch":         "main",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					GetFile(gomock.Eq(42), gomock.Eq("docs/README.md"), gomock.Any(), gomock.Any()).
					Return(nil, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusInternalServerError},
					}, fmt.Errorf("API error"))
			},
			wantError: true,
		},
		{
			name: "missing required argument",
			args: map[string]any{
				"project_id": "42",
				"file_path":  "docs/README.md",
			},
			setupMock: func(*glabtest.MockRepositoryFilesServiceInterface) {},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitlabClient := glabtest.NewTestClient(t)
			tt.setupMock(gitlabClient.MockRepositoryFiles)

			filesService := NewFilesTools(gitlabClient.Client)

			srv, err := mcptest.NewServer(t, filesService.CreateOrUpdateFile())
			if err != nil {
				t.Fatalf("failed to create server: %v", err)
			}
			defer srv.Close()

			var req mcp.CallToolRequest
			req.Params.Name = "create_or_update_file"
			req.Params.Arguments = tt.args

			result, err := srv.Client().CallTool(t.Context(), req)

			if gotErr := err != nil; gotErr != tt.wantError {
				t.Errorf("createOrUpdateFile error mismatch, got: %v, want error: %v", err, tt.wantError)
			}

			if err != nil {
				return
			}

			var got *gitlab.FileInfo
			if err := unmarshalResult(result, &got); err != nil {
				t.Fatalf("decode error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("file info mismatch (-want/+got):\n%s", diff)
			}
		})
	}
}

func TestGetFileContents(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		setupMock func(*glabtest.MockRepositoryFilesServiceInterface)
		wantError bool
		want      string
	}{
		{
			name: "get file contents",
			args: map[string]any{
				"project_id": "42",
				"file_path":  "main.go",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					GetRawFile(gomock.Eq(42), gomock.Eq("main.go"), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ string, opt *gitlab.GetRawFileOptions, _ ...gitlab.RequestOptionFunc) ([]byte, *gitlab.Response, error) {
						if opt.Ref != nil {
							t.Errorf("opt.Ref = %q, want nil", *opt.Ref)
						}

						return []byte("package main\n"), &gitlab.Response{
							Response: &http.Response{StatusCode: http.StatusOK},
						}, nil
					})
			},
			want: "package main\n",
		},
		{
			name: "get file contents from a ref",
			args: map[string]any{
				"project_id": "group/project",
				"file_path":  "main.go",
				"ref":        "feature-branch",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					GetRawFile(gomock.Eq("group/project"), gomock.Eq("main.go"), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ string, opt *gitlab.GetRawFileOptions, _ ...gitlab.RequestOptionFunc) ([]byte, *gitlab.Response, error) {
						if opt.Ref == nil || *opt.Ref != "feature-branch" {
							t.Errorf("opt.Ref = %v, want 'feature-branch'", opt.Ref)
						}

						return []byte("package feature\n"), &gitlab.Response{
							Response: &http.Response{StatusCode: http.StatusOK},
						}, nil
					})
			},
			want: "package feature\n",
		},
		{
			name: "file not found",
			args: map[string]any{
				"project_id": "42",
				"file_path":  "missing.go",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					GetRawFile(gomock.Eq(42), gomock.Eq("missing.go"), gomock.Any(), gomock.Any()).
					Return(nil, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusNotFound},
					}, fmt.Errorf("404 Not Found"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitlabClient := glabtest.NewTestClient(t)
			tt.setupMock(gitlabClient.MockRepositoryFiles)

			filesService := NewFilesTools(gitlabClient.Client)

			srv, err := mcptest.NewServer(t, filesService.GetFileContents())
			if err != nil {
				t.Fatalf("failed to create server: %v", err)
			}
			defer srv.Close()

			var req mcp.CallToolRequest
			req.Params.Name = "get_file_contents"
			req.Params.Arguments = tt.args

			result, err := srv.Client().CallTool(t.Context(), req)

			if gotErr := err != nil; gotErr != tt.wantError {
				t.Errorf("getFileContents error mismatch, got: %v, want error: %v", err, tt.wantError)
			}

			if err != nil {
				return
			}

			got, err := resultToString(result)
			if err != nil {
				t.Fatalf("resultToString: %v", err)
			}

			if got != tt.want {
				t.Errorf("contents = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeleteFile(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		setupMock func(*glabtest.MockRepositoryFilesServiceInterface)
		wantError bool
		want      string
	}{
		{
			name: "delete a file",
			args: map[string]any{
				"project_id":     "42",
				"file_path":      "obsolete.txt",
				"branch":         "main",
				"commit_message": "Remove obsolete file",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					DeleteFile(gomock.Eq(42), gomock.Eq("obsolete.txt"), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ string, opt *gitlab.DeleteFileOptions, _ ...gitlab.RequestOptionFunc) (*gitlab.Response, error) {
						if opt.Branch == nil || *opt.Branch != "main" {
							t.Errorf("opt.Branch = %v, want 'main'", opt.Branch)
						}

						if opt.CommitMessage == nil || *opt.CommitMessage != "Remove obsolete file" {
							t.Errorf("opt.CommitMessage = %v, want 'Remove obsolete file'", opt.CommitMessage)
						}

						return &gitlab.Response{
							Response: &http.Response{StatusCode: http.StatusNoContent},
						}, nil
					})
			},
			want: "obsolete.txt was deleted from branch main",
		},
		{
			name: "delete fails",
			args: map[string]any{
				"project_id":     "42",
				"file_path":      "protected.txt",
				"branch":         "main",
				"commit_message": "Remove protected file",
			},
			setupMock: func(mockFiles *glabtest.MockRepositoryFilesServiceInterface) {
				mockFiles.EXPECT().
					DeleteFile(gomock.Eq(42), gomock.Eq("protected.txt"), gomock.Any(), gomock.Any()).
					Return(&gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusForbidden},
					}, fmt.Errorf("403 Forbidden"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitlabClient := glabtest.NewTestClient(t)
			tt.setupMock(gitlabClient.MockRepositoryFiles)

			filesService := NewFilesTools(gitlabClient.Client)

			srv, err := mcptest.NewServer(t, filesService.DeleteFile())
			if err != nil {
				t.Fatalf("failed to create server: %v", err)
			}
			defer srv.Close()

			var req mcp.CallToolRequest
			req.Params.Name = "delete_file"
			req.Params.Arguments = tt.args

			result, err := srv.Client().CallTool(t.Context(), req)

			if gotErr := err != nil; gotErr != tt.wantError {
				t.Errorf("deleteFile error mismatch, got: %v, want error: %v", err, tt.wantError)
			}

			if err != nil {
				return
			}

			got, err := resultToString(result)
			if err != nil {
				t.Fatalf("resultToString: %v", err)
			}

			if got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPushFiles(t *testing.T) {
	tests := []struct {
		name              string
		args              map[string]any
		setupMock         func(*glabtest.TestClient)
		wantError         bool
		wantErrorResponse bool
		want              *gitlab.Commit
	}{
		{
			name: "mix of new and existing files",
			args: map[string]any{
				"project_id":     "42",
				"branch":         "main",
				"commit_message": "Add config, update docs",
				"files": []any{
					map[string]any{"file_path": "docs/README.md", "content": "# Updated"},
					map[string]any{"file_path": "config.yaml", "content": "env: prod"},
				},
			},
			setupMock: func(client *glabtest.TestClient) {
				client.MockRepositoryFiles.EXPECT().
					GetFile(gomock.Eq(42), gomock.Eq("docs/README.md"), gomock.Any(), gomock.Any()).
					Return(&gitlab.File{FilePath: "docs/README.md"}, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusOK},
					}, nil)

				client.MockRepositoryFiles.EXPECT().
					GetFile(gomock.Eq(42), gomock.Eq("config.yaml"), gomock.Any(), gomock.Any()).
					Return(nil, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusNotFound},
					}, fmt.Errorf("404 Not Found"))

				client.MockCommits.EXPECT().
					CreateCommit(gomock.Eq(42), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, opt *gitlab.CreateCommitOptions, _ ...gitlab.RequestOptionFunc) (*gitlab.Commit, *gitlab.Response, error) {
						if len(opt.Actions) != 2 {
							t.Fatalf("len(opt.Actions) = %d, want 2", len(opt.Actions))
						}

						if got := *opt.Actions[0].Action; got != gitlab.FileUpdate {
							t.Errorf("actions[0].Action = %q, want %q", got, gitlab.FileUpdate)
						}

						if got := *opt.Actions[1].Action; got != gitlab.FileCreate {
							t.Errorf("actions[1].Action = %q, want %q", got, gitlab.FileCreate)
						}

						return &gitlab.Commit{
								ID:    "abc123",
								Title: "Add config, update docs",
							}, &gitlab.Response{
								Response: &http.Response{StatusCode: http.StatusCreated},
							}, nil
					})
			},
			want: &gitlab.Commit{
				ID:    "abc123",
				Title: "Add config, update docs",
			},
		},
		{
			name: "empty file list",
			args: map[string]any{
				"project_id":     "42",
				"branch":         "main",
				"commit_message": "Empty commit",
				"files":          []any{},
			},
			setupMock:         func(*glabtest.TestClient) {},
			wantErrorResponse: true,
		},
		{
			name: "file entry without content",
			args: map[string]any{
				"project_id":     "42",
				"branch":         "main",
				"commit_message": "Broken commit",
				"files": []any{
					map[string]any{"file_path": "a.txt"},
				},
			},
			setupMock: func(*glabtest.TestClient) {},
			wantError: true,
		},
		{
			name: "commit fails",
			args: map[string]any{
				"project_id":     "42",
				"branch":         "gone",
				"commit_message": "Add file",
				"files": []any{
					map[string]any{"file_path": "a.txt", "content": "A"},
				},
			},
			setupMock: func(client *glabtest.TestClient) {
				client.MockRepositoryFiles.EXPECT().
					GetFile(gomock.Eq(42), gomock.Eq("a.txt"), gomock.Any(), gomock.Any()).
					Return(nil, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusNotFound},
					}, fmt.Errorf("404 Not Found"))

				client.MockCommits.EXPECT().
					CreateCommit(gomock.Eq(42), gomock.Any(), gomock.Any()).
					Return(nil, &gitlab.Response{
						Response: &http.Response{StatusCode: http.StatusBadRequest},
					}, fmt.Errorf("branch does not exist"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitlabClient := glabtest.NewTestClient(t)
			tt.setupMock(gitlabClient)

			filesService := NewFilesTools(gitlabClient.Client)

			srv, err := mcptest.NewServer(t, filesService.PushFiles())
			if err != nil {
				t.Fatalf("failed to create server: %v", err)
			}
			defer srv.Close()

			var req mcp.CallToolRequest
			req.Params.Name = "push_files"
			req.Params.Arguments = tt.args

			result, err := srv.Client().CallTool(t.Context(), req)

			if gotErr := err != nil; gotErr != tt.wantError {
				t.Errorf("pushFiles error mismatch, got: %v, want error: %v", err, tt.wantError)
			}

			if err != nil {
				return
			}

			if result.IsError != tt.wantErrorResponse {
				t.Errorf("unexpected inline error status, got: %v, want: %v", result.IsError, tt.wantErrorResponse)
			}

			if result.IsError {
				return
			}

			var got *gitlab.Commit
			if err := unmarshalResult(result, &got); err != nil {
				t.Fatalf("decode error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("commit mismatch (-want/+got):\n%s", diff)
			}
		})
	}
}
