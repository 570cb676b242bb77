package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adcraft/internal/meta"
	"adcraft/internal/workflow"
)

type noopGraph struct{ token string }

func (g *noopGraph) SetAccessToken(t string) { g.token = t }
func (g *noopGraph) AccessToken() string     { return g.token }
func (g *noopGraph) ClearAccessToken()       { g.token = "" }
func (g *noopGraph) GetPortfolios(ctx context.Context) []meta.Portfolio {
	return nil
}
func (g *noopGraph) GetAssets(ctx context.Context, portfolioID string) ([]meta.Asset, error) {
	return nil, nil
}
func (g *noopGraph) LaunchCampaign(ctx context.Context, adAccountID string, in meta.CampaignInput) (string, error) {
	return "", nil
}

func TestSessionStoreLifecycle(t *testing.T) {
	st := NewSessionStore(time.Hour)

	sess := workflow.NewSession(&noopGraph{})
	st.Put(sess)
	assert.Equal(t, 1, st.Count())

	got, err := st.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	st.Delete(sess.ID)
	_, err = st.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, st.Count())
}

func TestGetUnknownSession(t *testing.T) {
	st := NewSessionStore(time.Hour)
	_, err := st.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
