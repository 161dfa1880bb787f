package cli

import (
	"context"

	"github.com/mithrel/muse/internal/service"
	"github.com/mithrel/muse/pkg/api"
)

// fetchAllDocuments follows list cursors until the last page.
func fetchAllDocuments(ctx context.Context, svc *service.Service, userID, query string, pageSize int) ([]api.DocumentSummary, error) {
	if pageSize <= 0 {
		pageSize = 200
	}
	out := make([]api.DocumentSummary, 0, pageSize)
	cursor := ""
	for {
		docs, page, err := svc.ListDocuments(ctx, userID, api.ListQuery{Query: query, Limit: pageSize, Cursor: cursor})
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
		if page.Next == "" || page.Next == cursor || len(docs) == 0 {
			break
		}
		cursor = page.Next
	}
	return out, nil
}
