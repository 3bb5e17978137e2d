package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pmnarchive/internal/domain"
	"pmnarchive/internal/domain/models/archive"
	archiveSvc "pmnarchive/internal/domain/services/archive"
)

// HTTPStore talks to the archive API over HTTP. Network-level failures
// surface as domain.TransientError; HTTP error statuses map back to the
// typed domain errors the server raised.
type HTTPStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPStore creates a store bound to an API base URL and bearer token
func NewHTTPStore(baseURL, token string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchArchive retrieves the nested tree and flattens it into the flat
// collections the snapshot is built from
func (s *HTTPStore) FetchArchive(ctx context.Context) ([]archive.Folder, []archive.Document, error) {
	var tree archive.TreeNode
	if err := s.do(ctx, http.MethodGet, "/api/tree", nil, &tree); err != nil {
		return nil, nil, err
	}

	var folders []archive.Folder
	var docs []archive.Document
	flattenDocuments(tree.Documents, &docs)
	flattenFolders(tree.Folders, &folders, &docs)
	return folders, docs, nil
}

// CreateFolder creates a folder and returns the stored record
func (s *HTTPStore) CreateFolder(ctx context.Context, req *archiveSvc.CreateFolderRequest) (*archive.Folder, error) {
	var folder archive.Folder
	if err := s.do(ctx, http.MethodPost, "/api/folders", req, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder applies a partial folder update. The tri-state parent_id
// field is built by hand because encoding/json cannot express an
// intentionally absent key.
func (s *HTTPStore) UpdateFolder(ctx context.Context, folderID string, req *archiveSvc.UpdateFolderRequest) (*archive.Folder, error) {
	body := map[string]interface{}{}
	if req.Name != nil {
		body["name"] = *req.Name
	}
	if req.Category != nil {
		body["category"] = *req.Category
	}
	if req.Status != nil {
		body["status"] = *req.Status
	}
	if req.FolderNumber != nil {
		body["folder_number"] = *req.FolderNumber
	}
	if req.ParentID.Present {
		body["parent_id"] = req.ParentID.Value
	}

	var folder archive.Folder
	if err := s.do(ctx, http.MethodPatch, "/api/folders/"+folderID, body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// ReorderFolders assigns new sort positions to one parent's children
func (s *HTTPStore) ReorderFolders(ctx context.Context, parentID *string, orderedIDs []string) error {
	req := archiveSvc.ReorderRequest{
		ParentID:   parentID,
		OrderedIDs: orderedIDs,
	}
	return s.do(ctx, http.MethodPost, "/api/folders/reorder", req, nil)
}

// DeleteFolder deletes a folder
func (s *HTTPStore) DeleteFolder(ctx context.Context, folderID string) error {
	return s.do(ctx, http.MethodDelete, "/api/folders/"+folderID, nil, nil)
}

// CreateDocument registers an uploaded file's metadata
func (s *HTTPStore) CreateDocument(ctx context.Context, req *archiveSvc.CreateDocumentRequest) (*archive.Document, error) {
	var doc archive.Document
	if err := s.do(ctx, http.MethodPost, "/api/documents", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument deletes a document
func (s *HTTPStore) DeleteDocument(ctx context.Context, documentID string) error {
	return s.do(ctx, http.MethodDelete, "/api/documents/"+documentID, nil, nil)
}

// do executes one API request and decodes the response into out (if
// non-nil)
func (s *HTTPStore) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &domain.TransientError{Message: fmt.Sprintf("request %s %s: %v", method, path, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// problemResponse mirrors the server's RFC 7807 error body
type problemResponse struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// decodeError maps an HTTP error response back to a typed domain error
func decodeError(resp *http.Response) error {
	var problem problemResponse
	detail := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&problem); err == nil && problem.Detail != "" {
		detail = problem.Detail
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &domain.ValidationError{Message: detail}
	case http.StatusUnauthorized:
		return &domain.UnauthorizedError{Message: detail}
	case http.StatusForbidden:
		return &domain.ForbiddenError{Message: detail}
	case http.StatusNotFound:
		return &domain.NotFoundError{Message: detail}
	case http.StatusConflict:
		return &domain.ConflictError{Message: detail}
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &domain.TransientError{Message: detail}
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)
	}
}

func flattenFolders(nodes []*archive.FolderTreeNode, folders *[]archive.Folder, docs *[]archive.Document) {
	for _, node := range nodes {
		*folders = append(*folders, archive.Folder{
			ID:           node.ID,
			Name:         node.Name,
			ParentID:     node.ParentID,
			FolderNumber: node.FolderNumber,
			Order:        node.Order,
			Category:     node.Category,
			Status:       node.Status,
			CreatedAt:    node.CreatedAt,
		})
		flattenDocuments(node.Documents, docs)
		flattenFolders(node.Folders, folders, docs)
	}
}

func flattenDocuments(nodes []archive.DocumentTreeNode, docs *[]archive.Document) {
	for _, node := range nodes {
		*docs = append(*docs, archive.Document{
			ID:        node.ID,
			Name:      node.Name,
			FolderID:  node.FolderID,
			Category:  node.Category,
			SizeBytes: node.SizeBytes,
			UpdatedAt: node.UpdatedAt,
		})
	}
}
