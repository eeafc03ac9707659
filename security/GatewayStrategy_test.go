package security

import (
	goctx "context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeaders = GatewayHeaders{
	ActorHeader:        "X-Actor-Id",
	OrganizationHeader: "X-Org-Id",
	ApiKey:             "secret",
}

func TestGatewayStrategyAuthenticates(t *testing.T) {
	strategy := NewGatewayStrategy(libcache.LRU.New(10), testHeaders, time.Minute)
	r := httptest.NewRequest("GET", "/api/v1/data/import/jobs", nil)
	r.Header.Set("X-Actor-Id", "user-1")
	r.Header.Set("X-Org-Id", "org-1")
	r.Header.Set(ApiKeyHeader, "secret")

	info, err := strategy.Authenticate(goctx.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "user-1", info.GetID())
	assert.Equal(t, "org-1", info.GetExtensions().Get(context.OrgIdExt))
	assert.Equal(t, "gateway", info.GetExtensions().Get(context.AuthMethodExt))

	cached, err := strategy.Authenticate(goctx.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, info, cached)
}

func TestGatewayStrategyRejects(t *testing.T) {
	strategy := NewGatewayStrategy(libcache.LRU.New(10), testHeaders, time.Minute)
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"missing key", map[string]string{"X-Actor-Id": "user-1", "X-Org-Id": "org-1"}},
		{"wrong key", map[string]string{"X-Actor-Id": "user-1", "X-Org-Id": "org-1", ApiKeyHeader: "guess"}},
		{"missing actor", map[string]string{"X-Org-Id": "org-1", ApiKeyHeader: "secret"}},
		{"missing org", map[string]string{"X-Actor-Id": "user-1", ApiKeyHeader: "secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/data/dashboard", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			_, err := strategy.Authenticate(goctx.Background(), r)
			assert.Error(t, err)
		})
	}
}

func TestGatewayStrategyWithoutApiKey(t *testing.T) {
	headers := testHeaders
	headers.ApiKey = ""
	strategy := NewGatewayStrategy(libcache.LRU.New(10), headers, time.Minute)
	r := httptest.NewRequest("GET", "/api/v1/data/dashboard", nil)
	r.Header.Set("X-Actor-Id", "user-2")
	r.Header.Set("X-Org-Id", "org-2")

	info, err := strategy.Authenticate(goctx.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "user-2", info.GetUserName())
}
