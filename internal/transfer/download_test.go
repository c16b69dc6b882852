package transfer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// createTestTransfer creates a transfer with the given files and password.
func createTestTransfer(t *testing.T, env *testEnv, password string, files ...FileUpload) string {
	created, err := env.manager.CreateTransfer(context.Background(), CreateTransferRequest{
		Files:      files,
		ExpiryDays: 1,
		Password:   password,
	})
	require.NoError(t, err)
	return created.ID
}

func downloadCount(t *testing.T, env *testEnv, id string) int64 {
	view, err := env.manager.FetchTransfer(context.Background(), id)
	require.NoError(t, err)
	return view.DownloadCount
}

func TestFetchTransferNotFound(t *testing.T) {
	env := newTestEnv(t, testSettings())

	_, err := env.manager.FetchTransfer(context.Background(), uuid.NewString())
	require.True(t, IsCode(err, ErrCodeNotFound), "got %v", err)

	_, err = env.manager.FetchTransfer(context.Background(), "not-a-uuid")
	require.True(t, IsCode(err, ErrCodeNotFound), "got %v", err)
}

func TestExpiryBoundary(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "", upload("a.bin", 10))

	view, err := env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)
	expiresAt := view.ExpiresAt

	env.clock.Set(expiresAt.Add(-time.Second))
	view, err = env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)
	require.False(t, view.IsExpired)

	env.clock.Set(expiresAt)
	view, err = env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)
	require.True(t, view.IsExpired, "the boundary itself is expired")

	env.clock.Set(expiresAt.Add(time.Second))
	view, err = env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)
	require.True(t, view.IsExpired)
}

func TestIssueDownloadRechecksExpiry(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "", upload("a.bin", 10))

	view, err := env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)
	require.False(t, view.IsExpired)

	// time passes between the page load and the click
	env.clock.Set(view.ExpiresAt.Add(time.Millisecond))

	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: view.Files[0].ID})
	require.True(t, IsCode(err, ErrCodeExpired), "got %v", err)
	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id})
	require.True(t, IsCode(err, ErrCodeExpired), "got %v", err)

	require.Equal(t, int64(0), downloadCount(t, env, id))
}

func TestAuthorize(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	gated := createTestTransfer(t, env, "secret", upload("a.bin", 10))
	open := createTestTransfer(t, env, "", upload("b.bin", 10))

	require.NoError(t, env.manager.Authorize(ctx, gated, "secret"))
	for _, wrong := range []string{"wrong", "", "Secret", "secret "} {
		err := env.manager.Authorize(ctx, gated, wrong)
		require.True(t, IsCode(err, ErrCodeUnauthorized), "%q: got %v", wrong, err)
		require.Equal(t, "invalid password", err.Error())
	}

	for _, supplied := range []string{"", "anything", "secret"} {
		require.NoError(t, env.manager.Authorize(ctx, open, supplied))
	}

	err := env.manager.Authorize(ctx, uuid.NewString(), "secret")
	require.True(t, IsCode(err, ErrCodeNotFound), "got %v", err)
}

func TestIssueDownloadWrongPassword(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "secret", upload("a.bin", 10))
	view, err := env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)

	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: view.Files[0].ID, Password: "wrong"})
	require.True(t, IsCode(err, ErrCodeUnauthorized), "got %v", err)
	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, Password: "wrong"})
	require.True(t, IsCode(err, ErrCodeUnauthorized), "got %v", err)
	require.Equal(t, int64(0), downloadCount(t, env, id))

	// retryable with the right password
	res, err := env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: view.Files[0].ID, Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.DownloadCount)
}

func TestIssueDownloadCheckOrder(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "secret", upload("a.bin", 10))

	_, err := env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: uuid.NewString(), Password: "secret"})
	require.True(t, IsCode(err, ErrCodeNotFound), "got %v", err)

	// a wrong password is reported before an unknown file
	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: uuid.NewString(), Password: "wrong"})
	require.True(t, IsCode(err, ErrCodeUnauthorized), "got %v", err)

	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: uuid.NewString(), Password: "secret"})
	require.True(t, IsCode(err, ErrCodeNotFound), "got %v", err)
	require.Equal(t, "file not found", err.Error())

	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: "garbage", Password: "secret"})
	require.True(t, IsCode(err, ErrCodeNotFound), "got %v", err)

	// a file of another transfer does not belong to this one
	other := createTestTransfer(t, env, "", upload("b.bin", 10))
	otherView, err := env.manager.FetchTransfer(ctx, other)
	require.NoError(t, err)
	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: otherView.Files[0].ID, Password: "secret"})
	require.True(t, IsCode(err, ErrCodeNotFound), "got %v", err)

	// expiry is reported before a wrong password
	env.clock.Set(env.clock.Now().Add(48 * time.Hour))
	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, Password: "wrong"})
	require.True(t, IsCode(err, ErrCodeExpired), "got %v", err)

	require.Equal(t, int64(0), downloadCount(t, env, id))
}

func TestIssueDownloadAllCountsOnce(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "", upload("a.bin", 10), upload("b.bin", 20), upload("c.bin", 30))
	env.blobs.failSign["b.bin"] = errors.New("signer unavailable")

	res, err := env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.DownloadCount)
	require.Equal(t, 1, res.Skipped)
	require.Len(t, res.Links, 2)
	require.Equal(t, "a.bin", res.Links[0].Name)
	require.Equal(t, "c.bin", res.Links[1].Name)
	require.Equal(t, int64(30), res.Links[1].Size)

	delete(env.blobs.failSign, "b.bin")
	res, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id})
	require.NoError(t, err)
	require.Len(t, res.Links, 3)
	require.Zero(t, res.Skipped)
	require.Equal(t, int64(2), res.DownloadCount)
}

func TestIssueDownloadAllFailsWhenNothingSigned(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "", upload("a.bin", 10), upload("b.bin", 20))
	env.blobs.failSign["a.bin"] = errors.New("signer unavailable")
	env.blobs.failSign["b.bin"] = errors.New("signer unavailable")

	_, err := env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id})
	require.True(t, IsCode(err, ErrCodeIO), "got %v", err)
	require.Equal(t, int64(0), downloadCount(t, env, id))
}

func TestIssueDownloadSingleSignFailure(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "", upload("a.bin", 10))
	view, err := env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)
	env.blobs.failSign["a.bin"] = errors.New("signer unavailable")

	_, err = env.manager.IssueDownload(ctx, IssueDownloadRequest{TransferID: id, FileID: view.Files[0].ID})
	require.True(t, IsCode(err, ErrCodeIO), "got %v", err)
	require.Equal(t, "failed to create download link", err.Error())
	require.Equal(t, int64(0), downloadCount(t, env, id))
}

func TestIssueDownloadConcurrentCountsEveryCall(t *testing.T) {
	env := newTestEnv(t, testSettings())
	ctx := context.Background()
	id := createTestTransfer(t, env, "", upload("a.bin", 10), upload("b.bin", 10))
	view, err := env.manager.FetchTransfer(ctx, id)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := IssueDownloadRequest{TransferID: id}
			if i%2 == 0 {
				req.FileID = view.Files[0].ID
			}
			_, err := env.manager.IssueDownload(ctx, req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int64(n), downloadCount(t, env, id))
}

func TestTransferViewHidesPassword(t *testing.T) {
	env := newTestEnv(t, testSettings())
	id := createTestTransfer(t, env, "hunter2", upload("a.bin", 10))

	view, err := env.manager.FetchTransfer(context.Background(), id)
	require.NoError(t, err)
	require.True(t, view.RequiresPassword)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "hunter2")
	require.NotContains(t, string(raw), "$2a$")
	require.NotContains(t, string(raw), "password\"")
}

func TestErrorHelpers(t *testing.T) {
	err := errors.Wrap(notFoundError("transfer not found"), "handler")
	typed, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, ErrCodeNotFound, typed.Code)
	require.False(t, typed.Retryable)
	require.True(t, IsCode(err, ErrCodeNotFound))
	require.False(t, IsCode(err, ErrCodeExpired))

	_, ok = AsError(errors.New("plain"))
	require.False(t, ok)
	require.False(t, IsCode(nil, ErrCodeIO))

	require.Equal(t, "transfer error: IO", NewError(ErrCodeIO, "", true).Error())
}
