package changerequest

import (
	"context"
	"fmt"
	"strings"

	"github.com/inventra/asset-management-api/internal/changerequest/model"
	dbmodel "github.com/inventra/asset-management-api/internal/system/database/model"
	"github.com/inventra/asset-management-api/internal/system/database/provider"
	"github.com/inventra/asset-management-api/internal/system/stores/interfaces"
)

// DBQuery objects for all change request operations
var (
	QueryCreateChangeRequest = dbmodel.DBQuery{
		ID:    "CREATE_CHANGE_REQUEST",
		Query: "INSERT INTO CHANGE_REQUEST (REQUEST_ID, ITEM_ID, OWNER_ID, ADMIN_USER, ACTION_TYPE, STATUS, PROPOSED_CHANGES, DESCRIPTION, CREATED_TIME, RESPONDED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetChangeRequestByID = dbmodel.DBQuery{
		ID:    "GET_CHANGE_REQUEST_BY_ID",
		Query: "SELECT REQUEST_ID, ITEM_ID, OWNER_ID, ADMIN_USER, ACTION_TYPE, STATUS, PROPOSED_CHANGES, DESCRIPTION, CREATED_TIME, RESPONDED_TIME FROM CHANGE_REQUEST WHERE REQUEST_ID = ?",
	}

	QueryCountChangeRequestsByStatus = dbmodel.DBQuery{
		ID:    "COUNT_CHANGE_REQUESTS_BY_STATUS",
		Query: "SELECT COUNT(*) as count FROM CHANGE_REQUEST WHERE STATUS = ?",
	}

	QueryFindPendingChangeRequests = dbmodel.DBQuery{
		ID:    "FIND_PENDING_CHANGE_REQUESTS",
		Query: "SELECT REQUEST_ID, ITEM_ID, OWNER_ID, ADMIN_USER, ACTION_TYPE, STATUS, PROPOSED_CHANGES, DESCRIPTION, CREATED_TIME, RESPONDED_TIME FROM CHANGE_REQUEST WHERE ITEM_ID = ? AND OWNER_ID = ? AND ACTION_TYPE = ? AND STATUS = 'pending'",
	}

	QueryListApprovedChangeRequests = dbmodel.DBQuery{
		ID:    "LIST_APPROVED_CHANGE_REQUESTS",
		Query: "SELECT REQUEST_ID, ITEM_ID, OWNER_ID, ADMIN_USER, ACTION_TYPE, STATUS, PROPOSED_CHANGES, DESCRIPTION, CREATED_TIME, RESPONDED_TIME FROM CHANGE_REQUEST WHERE ITEM_ID = ? AND OWNER_ID = ? AND ACTION_TYPE = ? AND STATUS = 'approved'",
	}

	QueryRejectPendingTriple = dbmodel.DBQuery{
		ID:    "REJECT_PENDING_CHANGE_REQUEST_TRIPLE",
		Query: "UPDATE CHANGE_REQUEST SET STATUS = 'rejected', RESPONDED_TIME = ? WHERE ITEM_ID = ? AND OWNER_ID = ? AND ACTION_TYPE = ? AND STATUS = 'pending'",
	}

	// QueryMarkResponded only flips requests that are still pending, so a
	// second decision on the same request affects zero rows.
	QueryMarkResponded = dbmodel.DBQuery{
		ID:    "MARK_CHANGE_REQUEST_RESPONDED",
		Query: "UPDATE CHANGE_REQUEST SET STATUS = ?, RESPONDED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = 'pending'",
	}
)

const selectChangeRequestColumns = "SELECT REQUEST_ID, ITEM_ID, OWNER_ID, ADMIN_USER, ACTION_TYPE, STATUS, PROPOSED_CHANGES, DESCRIPTION, CREATED_TIME, RESPONDED_TIME FROM CHANGE_REQUEST"

// store implements interfaces.ChangeRequestStoreInterface
type store struct {
	dbClient provider.DBClientInterface
}

// newChangeRequestStore creates a new change request store
func newChangeRequestStore(dbClient provider.DBClientInterface) interfaces.ChangeRequestStoreInterface {
	return &store{
		dbClient: dbClient,
	}
}

// Create inserts a new change request within a transaction
func (s *store) Create(tx dbmodel.TxInterface, request *model.ChangeRequest) error {
	_, err := tx.Exec(QueryCreateChangeRequest.Query,
		request.RequestID, request.ItemID, request.OwnerID, request.AdminUser,
		request.ActionType, request.Status, request.ProposedChanges,
		request.Description, request.CreatedTime, request.RespondedTime)
	return err
}

// GetByID retrieves a change request by ID
func (s *store) GetByID(ctx context.Context, requestID string) (*model.ChangeRequest, error) {
	rows, err := s.dbClient.Query(QueryGetChangeRequestByID, requestID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToChangeRequest(rows[0]), nil
}

// List retrieves change requests matching the given filters, newest first
func (s *store) List(ctx context.Context, filters model.Filters) ([]model.ChangeRequest, error) {
	var conditions []string
	var args []interface{}

	if filters.Status != "" {
		conditions = append(conditions, "STATUS = ?")
		args = append(args, filters.Status)
	}
	if filters.ActionType != "" {
		conditions = append(conditions, "ACTION_TYPE = ?")
		args = append(args, filters.ActionType)
	}
	if filters.OwnerID != "" {
		conditions = append(conditions, "OWNER_ID = ?")
		args = append(args, filters.OwnerID)
	}
	if filters.ItemID != "" {
		conditions = append(conditions, "ITEM_ID = ?")
		args = append(args, filters.ItemID)
	}
	if filters.Search != "" {
		conditions = append(conditions, "(DESCRIPTION LIKE ? OR ITEM_ID LIKE ? OR OWNER_ID LIKE ?)")
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query := selectChangeRequestColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY CREATED_TIME DESC"

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.dbClient.Query(dbmodel.DBQuery{ID: "LIST_CHANGE_REQUESTS", Query: query}, args...)
	if err != nil {
		return nil, err
	}

	requests := make([]model.ChangeRequest, 0, len(rows))
	for _, row := range rows {
		if r := mapToChangeRequest(row); r != nil {
			requests = append(requests, *r)
		}
	}
	return requests, nil
}

// CountByStatus counts change requests in the given status
func (s *store) CountByStatus(ctx context.Context, status string) (int64, error) {
	rows, err := s.dbClient.Query(QueryCountChangeRequestsByStatus, status)
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 {
		if count, ok := rows[0]["count"].(int64); ok {
			return count, nil
		}
	}
	return 0, nil
}

// FindPending retrieves pending requests for the item/owner/action triple
func (s *store) FindPending(ctx context.Context, itemID, ownerID, actionType string) ([]model.ChangeRequest, error) {
	rows, err := s.dbClient.Query(QueryFindPendingChangeRequests, itemID, ownerID, actionType)
	if err != nil {
		return nil, err
	}

	requests := make([]model.ChangeRequest, 0, len(rows))
	for _, row := range rows {
		if r := mapToChangeRequest(row); r != nil {
			requests = append(requests, *r)
		}
	}
	return requests, nil
}

// ListApprovedTx retrieves approved requests for the triple inside the
// caller's transaction
func (s *store) ListApprovedTx(tx dbmodel.TxInterface, itemID, ownerID, actionType string) ([]model.ChangeRequest, error) {
	rows, err := tx.Query(QueryListApprovedChangeRequests.Query, itemID, ownerID, actionType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.ChangeRequest
	for rows.Next() {
		var r model.ChangeRequest
		var respondedTime *int64
		err := rows.Scan(&r.RequestID, &r.ItemID, &r.OwnerID, &r.AdminUser,
			&r.ActionType, &r.Status, &r.ProposedChanges, &r.Description,
			&r.CreatedTime, &respondedTime)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change request: %w", err)
		}
		r.RespondedTime = respondedTime
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// MarkResponded flips a pending request to the given decision status. It
// returns false when no row changed, meaning the request was already
// decided.
func (s *store) MarkResponded(tx dbmodel.TxInterface, requestID, status string, respondedTime int64) (bool, error) {
	result, err := tx.Exec(QueryMarkResponded.Query, status, respondedTime, requestID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RejectPendingTriple rejects pending requests for the item/owner/action
// triple, returning the number rejected
func (s *store) RejectPendingTriple(tx dbmodel.TxInterface, itemID, ownerID, actionType string, respondedTime int64) (int64, error) {
	result, err := tx.Exec(QueryRejectPendingTriple.Query, respondedTime, itemID, ownerID, actionType)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RejectPendingByItem rejects all pending requests for the item except the
// excluded ones, returning the number invalidated
func (s *store) RejectPendingByItem(tx dbmodel.TxInterface, itemID string, excludeRequestIDs []string, respondedTime int64) (int64, error) {
	query := "UPDATE CHANGE_REQUEST SET STATUS = 'rejected', RESPONDED_TIME = ? WHERE ITEM_ID = ? AND STATUS = 'pending'"
	args := []interface{}{respondedTime, itemID}

	if len(excludeRequestIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(excludeRequestIDs)), ", ")
		query += fmt.Sprintf(" AND REQUEST_ID NOT IN (%s)", placeholders)
		for _, id := range excludeRequestIDs {
			args = append(args, id)
		}
	}

	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// mapToChangeRequest maps a database row to a ChangeRequest model
func mapToChangeRequest(row map[string]interface{}) *model.ChangeRequest {
	if row == nil {
		return nil
	}

	request := &model.ChangeRequest{}

	if id, ok := row["REQUEST_ID"].(string); ok {
		request.RequestID = id
	}
	if itemID, ok := row["ITEM_ID"].(string); ok {
		request.ItemID = itemID
	}
	if ownerID, ok := row["OWNER_ID"].(string); ok {
		request.OwnerID = ownerID
	}
	if adminUser, ok := row["ADMIN_USER"].(string); ok {
		request.AdminUser = adminUser
	}
	if action, ok := row["ACTION_TYPE"].(string); ok {
		request.ActionType = action
	}
	if status, ok := row["STATUS"].(string); ok {
		request.Status = status
	}
	if changes, ok := row["PROPOSED_CHANGES"].(string); ok {
		request.ProposedChanges = changes
	}
	if desc, ok := row["DESCRIPTION"].(string); ok {
		request.Description = desc
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		request.CreatedTime = created
	}
	if responded, ok := row["RESPONDED_TIME"].(int64); ok {
		respondedCopy := responded
		request.RespondedTime = &respondedCopy
	}

	return request
}
