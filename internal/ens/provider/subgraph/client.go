// Package subgraph lists subnames from the ENS indexing subgraph. The
// aggregator treats every failure here as "no subnames"; this client just
// reports errors honestly and lets the caller absorb them.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ensgraph/internal/ens/models"
	"ensgraph/internal/ens/names"
	"ensgraph/internal/ens/provider"
)

// Expiry and deletion filtering happen client-side after the fetch, so the
// operation must declare only the variables its body uses: graph-node runs
// standard GraphQL validation and rejects documents with unused variables.
const subnamesQuery = `query Subnames($id: ID!, $first: Int!) {
  domain(id: $id) {
    subdomains(first: $first, orderBy: createdAt, orderDirection: asc) {
      id
      name
      labelName
      createdAt
      expiryDate
      owner { id }
      registrant { id }
      resolvedAddress { id }
      registration { registrationDate }
    }
  }
}`

// Client posts GraphQL queries to the ENS subgraph endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type subdomainNode struct {
	ID           string  `json:"id"`
	Name         *string `json:"name"`
	LabelName    *string `json:"labelName"`
	CreatedAt    *string `json:"createdAt"`
	ExpiryDate   *string `json:"expiryDate"`
	Owner        *idNode `json:"owner"`
	Registrant   *idNode `json:"registrant"`
	Resolved     *idNode `json:"resolvedAddress"`
	Registration *struct {
		RegistrationDate *string `json:"registrationDate"`
	} `json:"registration"`
}

type idNode struct {
	ID string `json:"id"`
}

type graphQLResponse struct {
	Data struct {
		Domain *struct {
			Subdomains []subdomainNode `json:"subdomains"`
		} `json:"domain"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) ResolveSubnames(ctx context.Context, name string, q provider.SubnameQuery) ([]models.Subname, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	body, err := json.Marshal(graphQLRequest{
		Query: subnamesQuery,
		Variables: map[string]any{
			"id":    names.NameHash(name).Hex(),
			"first": pageSize,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal subgraph query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build subgraph request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subgraph request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph returned status %d", resp.StatusCode)
	}

	var decoded graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode subgraph response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", decoded.Errors[0].Message)
	}
	if decoded.Data.Domain == nil {
		return []models.Subname{}, nil
	}

	now := time.Now().Unix()
	subnames := make([]models.Subname, 0, len(decoded.Data.Domain.Subdomains))
	for _, node := range decoded.Data.Domain.Subdomains {
		sub := toSubname(node)
		if q.ExcludeExpired && sub.ExpiryDate != nil && *sub.ExpiryDate < now {
			continue
		}
		if q.ExcludeDeleted && isDeletedOwner(sub.Owner) {
			continue
		}
		subnames = append(subnames, sub)
	}
	return subnames, nil
}

func toSubname(node subdomainNode) models.Subname {
	sub := models.Subname{
		ID:            node.ID,
		Name:          node.Name,
		TruncatedName: truncateName(node.Name),
		LabelName:     node.LabelName,
		CreatedAt:     parseUnix(node.CreatedAt),
		ExpiryDate:    parseUnix(node.ExpiryDate),
	}
	if node.Owner != nil {
		sub.Owner = node.Owner.ID
	}
	if node.Registrant != nil && node.Registrant.ID != "" {
		sub.Registrant = &node.Registrant.ID
	}
	if node.Resolved != nil && node.Resolved.ID != "" {
		sub.ResolvedAddress = &node.Resolved.ID
	}
	if node.Registration != nil {
		sub.RegistrationDate = parseUnix(node.Registration.RegistrationDate)
	}
	return sub
}

const zeroAddress = "0x0000000000000000000000000000000000000000"

// isDeletedOwner reports whether an owner value marks a deleted subname. The
// subgraph keeps deleted entries around with the zero address as owner rather
// than nulling the record.
func isDeletedOwner(owner string) bool {
	return owner == "" || strings.EqualFold(owner, zeroAddress)
}

func parseUnix(v *string) *int64 {
	if v == nil {
		return nil
	}
	ts, err := strconv.ParseInt(*v, 10, 64)
	if err != nil {
		return nil
	}
	return &ts
}

const truncateLimit = 30

// truncateName shortens long names for list display, keeping the full value
// available in Name.
func truncateName(name *string) *string {
	if name == nil {
		return nil
	}
	if len(*name) <= truncateLimit {
		v := *name
		return &v
	}
	v := (*name)[:truncateLimit-3] + "..."
	return &v
}
