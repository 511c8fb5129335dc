package persistence

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	platformspanner "github.com/rai/shop-workflow-go/internal/platform/spanner"
	"github.com/rai/shop-workflow-go/modules/shared/types"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
)

var staffColumns = []string{"StaffID", "Email", "Name", "Role", "Status", "CreatedAt", "UpdatedAt"}

// SpannerRepository implements domain.Repository using Cloud Spanner.
type SpannerRepository struct {
	client *spanner.Client
}

func NewSpannerRepository(client *spanner.Client) *SpannerRepository {
	return &SpannerRepository{client: client}
}

var _ domain.Repository = (*SpannerRepository)(nil)

func (r *SpannerRepository) Save(ctx context.Context, m *domain.Member) error {
	mutations := []*spanner.Mutation{
		spanner.InsertOrUpdate("Staff", staffColumns, []any{
			m.ID().String(),
			m.Email().String(),
			m.Name().String(),
			m.Role().String(),
			m.Status().String(),
			m.CreatedAt(),
			m.UpdatedAt(),
		}),
	}

	if txn, ok := platformspanner.ReadWriteTxFromContext(ctx); ok {
		return txn.BufferWrite(mutations)
	}
	if _, err := r.client.Apply(ctx, mutations); err != nil {
		return fmt.Errorf("failed to save staff member: %w", err)
	}
	return nil
}

func (r *SpannerRepository) FindByID(ctx context.Context, id types.StaffID) (*domain.Member, error) {
	rtx, ok := platformspanner.ReadTransactionFromContext(ctx)
	if !ok {
		rtx = r.client.Single()
	}

	row, err := rtx.ReadRow(ctx, "Staff", spanner.Key{id.String()}, staffColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to read staff member: %w", err)
	}
	return scanMember(row)
}

func (r *SpannerRepository) Exists(ctx context.Context, email domain.Email) (bool, error) {
	rtx, ok := platformspanner.ReadTransactionFromContext(ctx)
	if !ok {
		rtx = r.client.Single()
	}

	iter := rtx.Query(ctx, spanner.Statement{
		SQL:    `SELECT 1 FROM Staff@{FORCE_INDEX=StaffByEmail} WHERE Email = @email LIMIT 1`,
		Params: map[string]any{"email": email.String()},
	})
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check staff existence: %w", err)
	}
	return true, nil
}

func (r *SpannerRepository) FindByRole(ctx context.Context, role domain.Role) ([]*domain.Member, error) {
	rtx, ok := platformspanner.ReadTransactionFromContext(ctx)
	if !ok {
		rtx = r.client.Single()
	}

	iter := rtx.Query(ctx, spanner.Statement{
		SQL: `SELECT StaffID, Email, Name, Role, Status, CreatedAt, UpdatedAt
		      FROM Staff@{FORCE_INDEX=StaffByRole}
		      WHERE Role = @role AND Status = 'active'
		      ORDER BY CreatedAt`,
		Params: map[string]any{"role": role.String()},
	})
	defer iter.Stop()

	return collect(iter)
}

func (r *SpannerRepository) FindAll(ctx context.Context, offset, limit int) ([]*domain.Member, int, error) {
	rtx, ok := platformspanner.ReadTransactionFromContext(ctx)
	if !ok {
		roTx := r.client.ReadOnlyTransaction()
		defer roTx.Close()
		rtx = roTx
	}

	countIter := rtx.Query(ctx, spanner.Statement{SQL: `SELECT COUNT(*) FROM Staff`})
	defer countIter.Stop()

	var total int64
	countRow, err := countIter.Next()
	if err != nil && err != iterator.Done {
		return nil, 0, fmt.Errorf("failed to count staff: %w", err)
	}
	if countRow != nil {
		if err := countRow.Columns(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}

	iter := rtx.Query(ctx, spanner.Statement{
		SQL: `SELECT StaffID, Email, Name, Role, Status, CreatedAt, UpdatedAt
		      FROM Staff
		      ORDER BY CreatedAt
		      LIMIT @limit OFFSET @offset`,
		Params: map[string]any{
			"limit":  int64(limit),
			"offset": int64(offset),
		},
	})
	defer iter.Stop()

	members, err := collect(iter)
	if err != nil {
		return nil, 0, err
	}
	return members, int(total), nil
}

func collect(iter *spanner.RowIterator) ([]*domain.Member, error) {
	var members []*domain.Member
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return members, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query staff: %w", err)
		}
		m, err := scanMember(row)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
}

func scanMember(row *spanner.Row) (*domain.Member, error) {
	var id, email, name, role, status string
	var createdAt, updatedAt time.Time
	if err := row.Columns(&id, &email, &name, &role, &status, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan staff member: %w", err)
	}

	staffID, err := types.ParseStaffID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse staff id: %w", err)
	}
	parsedEmail, err := domain.NewEmail(email)
	if err != nil {
		return nil, fmt.Errorf("staff %s: %w", id, err)
	}
	parsedName, err := domain.NewName(name)
	if err != nil {
		return nil, fmt.Errorf("staff %s: %w", id, err)
	}

	return domain.Reconstitute(staffID, parsedEmail, parsedName, domain.Role(role), domain.Status(status), createdAt, updatedAt), nil
}
