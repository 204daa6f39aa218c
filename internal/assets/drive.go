package assets

import (
	"context"
	"fmt"
	"log"
	"path"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveSource lists assets stored in a Google Drive folder tree. Folder
// names become path segments below the root folder.
type DriveSource struct {
	client   *drive.Service
	folderID string
}

// NewDriveSource creates a DriveSource. Authentication is supplied through
// opts, usually option.WithCredentialsFile for a service account.
func NewDriveSource(ctx context.Context, folderID string, opts ...option.ClientOption) (*DriveSource, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveSource{client: srv, folderID: folderID}, nil
}

// ListPaths walks the folder tree breadth first.
func (s *DriveSource) ListPaths(ctx context.Context) ([]string, error) {
	type folder struct {
		id, path string
	}
	queue := []folder{{id: s.folderID}}
	var paths []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		files, err := s.listChildren(ctx, current.id)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			p := path.Join(current.path, f.Name)
			if f.MimeType == folderMimeType {
				queue = append(queue, folder{id: f.Id, path: p})
				continue
			}
			paths = append(paths, p)
		}
	}
	log.Printf("INFO: Listed %d assets from drive folder %s", len(paths), s.folderID)
	return paths, nil
}

func (s *DriveSource) listChildren(ctx context.Context, folderID string) ([]*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)

	var all []*drive.File
	pageToken := ""
	for {
		call := s.client.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			OrderBy("name").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		r, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files in %s: %w", folderID, err)
		}
		all = append(all, r.Files...)
		pageToken = r.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return all, nil
}
