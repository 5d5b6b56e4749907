package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var userTestColumns = strings.Split(userColumns, ", ")

func newTestDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return newDB(conn, logger.Nop()), mock
}

func newTestUserRepo(t *testing.T) (*userRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock := newTestDB(t)
	repo := &userRepository{
		db:     db,
		logger: logger.Nop(),
	}
	return repo, mock, db.DB
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func userRows(users ...models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userTestColumns)
	for _, u := range users {
		rows.AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.AvatarURL,
			u.Active, u.TOTPSecret, u.TOTPEnabled, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func testUser(role models.Role) models.User {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return models.User{
		ID:           "0190a3c4-0000-7000-8000-000000000001",
		Name:         "John",
		Email:        "john@example.com",
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	ctx := context.Background()
	user := testUser(models.RoleTraveler)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Phone, user.AvatarURL,
			user.Active, user.TOTPSecret, user.TOTPEnabled, user.CreatedAt, user.UpdatedAt).
		WillReturnRows(userRows(user))
	mock.ExpectCommit()

	created, err := repo.CreateUser(ctx, user, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != user.ID {
		t.Errorf("expected ID=%s, got %s", user.ID, created.ID)
	}
	if created.Email != user.Email {
		t.Errorf("expected email %s, got %s", user.Email, created.Email)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUser_GuideWithProfile(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	ctx := context.Background()
	user := testUser(models.RoleGuide)
	profile := &models.GuideProfile{UserID: user.ID, Languages: models.StringList{}}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(anyArgs(12)...).
		WillReturnRows(userRows(user))
	mock.ExpectExec("INSERT INTO guide_profiles").
		WithArgs(anyArgs(12)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := repo.CreateUser(ctx, user, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Role != models.RoleGuide {
		t.Errorf("expected guide role, got %s", created.Role)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUser_ProfileFailureRollsBack(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	user := testUser(models.RoleGuide)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(anyArgs(12)...).
		WillReturnRows(userRows(user))
	mock.ExpectExec("INSERT INTO guide_profiles").
		WithArgs(anyArgs(12)...).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.CreateUser(context.Background(), user, &models.GuideProfile{UserID: user.ID})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unexpected DB error") {
		t.Errorf("unexpected error message: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(anyArgs(12)...).
		WillReturnError(pgError(pgerrcode.UniqueViolation))
	mock.ExpectRollback()

	_, err := repo.CreateUser(context.Background(), testUser(models.RoleTraveler), nil)
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestCreateUser_SerializationFailureIsRetried(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)
	user := testUser(models.RoleTraveler)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(anyArgs(12)...).
		WillReturnError(pgError(pgerrcode.SerializationFailure))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(anyArgs(12)...).
		WillReturnRows(userRows(user))
	mock.ExpectCommit()

	created, err := repo.CreateUser(context.Background(), user, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != user.ID {
		t.Errorf("expected ID=%s, got %s", user.ID, created.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetUserByEmail_Success(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)
	user := testUser(models.RoleAdmin)

	mock.ExpectQuery(`FROM users\s+WHERE email =`).
		WithArgs(user.Email).
		WillReturnRows(userRows(user))

	got, err := repo.GetUserByEmail(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("expected admin role, got %s", got.Role)
	}
	if !got.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", user.CreatedAt, got.CreatedAt)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	mock.ExpectQuery(`FROM users\s+WHERE id =`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByID(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	mock.ExpectQuery(`FROM users\s+WHERE id =`).
		WithArgs("u-1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Fatal("did not expect ErrUserNotFound")
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)
	active := false

	mock.ExpectQuery("UPDATE users").
		WithArgs(anyArgs(3)...).
		WillReturnRows(sqlmock.NewRows(userTestColumns))

	_, err := repo.UpdateUser(context.Background(), "u-1", models.UserChanges{Active: &active})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUser_Success(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	user := testUser(models.RoleTraveler)
	user.Active = false

	mock.ExpectQuery(`UPDATE users SET active = \$1, updated_at = \$2 WHERE id = \$3 RETURNING`).
		WithArgs(false, user.UpdatedAt, user.ID).
		WillReturnRows(userRows(user))

	got, err := repo.UpdateUser(context.Background(), user.ID, models.UserChanges{Active: &user.Active, UpdatedAt: user.UpdatedAt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Active {
		t.Error("expected blocked user")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateUser_GuardConflict(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	user := testUser(models.RoleTraveler)
	hash, previous := "new-hash", "stale-hash"

	mock.ExpectQuery(`UPDATE users SET password_hash = \$1, updated_at = \$2 WHERE id = \$3 AND password_hash = \$4`).
		WithArgs(hash, user.UpdatedAt, user.ID, previous).
		WillReturnRows(sqlmock.NewRows(userTestColumns))
	mock.ExpectQuery(`FROM users\s+WHERE id =`).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))

	_, err := repo.UpdateUser(context.Background(), user.ID, models.UserChanges{
		PasswordHash:   &hash,
		IfPasswordHash: &previous,
		UpdatedAt:      user.UpdatedAt,
	})
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
}

func TestUpdateUser_GuardedMissingUser(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)
	secret := "SECRET"

	mock.ExpectQuery("UPDATE users").
		WithArgs(anyArgs(3)...).
		WillReturnRows(sqlmock.NewRows(userTestColumns))
	mock.ExpectQuery(`FROM users\s+WHERE id =`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userTestColumns))

	_, err := repo.UpdateUser(context.Background(), "ghost", models.UserChanges{IfTOTPSecret: &secret})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsers_Success(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	first := testUser(models.RoleTraveler)
	second := testUser(models.RoleTraveler)
	second.ID = "0190a3c4-0000-7000-8000-000000000002"

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WithArgs(models.RoleTraveler).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(`SELECT id, name, email, .* FROM users`).
		WithArgs(models.RoleTraveler).
		WillReturnRows(userRows(first, second))

	users, total, err := repo.ListUsers(context.Background(), models.UserFilter{Role: models.RoleTraveler})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 12 {
		t.Errorf("expected total 12, got %d", total)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[1].ID != second.ID {
		t.Errorf("expected second user %s, got %s", second.ID, users[1].ID)
	}
}

func TestListUsers_Empty(t *testing.T) {
	repo, mock, _ := newTestUserRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`SELECT id, name, email, .* FROM users`).
		WillReturnRows(sqlmock.NewRows(userTestColumns))

	users, total, err := repo.ListUsers(context.Background(), models.UserFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("expected total 0, got %d", total)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", users)
	}
}
