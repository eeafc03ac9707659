// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package security

import (
	goctx "context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/context"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/utils"
	"github.com/shaj13/go-guardian/v2/auth"
	"github.com/shaj13/libcache"
)

const ApiKeyHeader = "api-key"

type GatewayHeaders struct {
	ActorHeader        string
	OrganizationHeader string
	// empty means requests are not required to present a key
	ApiKey string
}

// NewGatewayStrategy trusts the identity headers set by the authenticating gateway in front of the service.
func NewGatewayStrategy(cache libcache.Cache, headers GatewayHeaders, ttl time.Duration) auth.Strategy {
	return &gatewayStrategyImpl{cache: cache, headers: headers, ttl: ttl}
}

type gatewayStrategyImpl struct {
	cache   libcache.Cache
	headers GatewayHeaders
	ttl     time.Duration
}

func (g gatewayStrategyImpl) Authenticate(ctx goctx.Context, r *http.Request) (auth.Info, error) {
	if g.headers.ApiKey != "" {
		apiKey := r.Header.Get(ApiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(g.headers.ApiKey)) != 1 {
			return nil, fmt.Errorf("authentication failed: header '%v' is missing or invalid", ApiKeyHeader)
		}
	}
	actor := r.Header.Get(g.headers.ActorHeader)
	if actor == "" {
		return nil, fmt.Errorf("authentication failed: header '%v' is empty", g.headers.ActorHeader)
	}
	orgId := r.Header.Get(g.headers.OrganizationHeader)
	if orgId == "" {
		return nil, fmt.Errorf("authentication failed: header '%v' is empty", g.headers.OrganizationHeader)
	}

	key := utils.GetEncodedXXHash128([]byte(actor), []byte{0}, []byte(orgId))
	if v, ok := g.cache.Load(key); ok {
		info, ok := v.(auth.Info)
		if !ok {
			return nil, auth.NewTypeError("authentication failed:", (*auth.Info)(nil), v)
		}
		return info, nil
	}

	extensions := auth.Extensions{}
	extensions.Set(context.OrgIdExt, orgId)
	extensions.Set(context.AuthMethodExt, "gateway")
	info := auth.NewDefaultUser(actor, actor, []string{}, extensions)
	g.cache.StoreWithTTL(key, info, g.ttl)
	return info, nil
}
