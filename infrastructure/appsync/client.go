// Package appsync implements the remote record store and the graph
// mirror over a GraphQL API.
package appsync

import (
	"context"
	"time"

	"github.com/machinebox/graphql"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/infrastructure/persistence/snapshot"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

const createPersonsMutation = `
mutation CreatePersons($input: CreatePersonsInput!) {
  createPersons(input: $input) {
    id
  }
}`

const updatePersonsMutation = `
mutation UpdatePersons($input: UpdatePersonsInput!) {
  updatePersons(input: $input) {
    id
  }
}`

const createFamiliesMutation = `
mutation CreateFamilies($input: CreateFamiliesInput!) {
  createFamilies(input: $input) {
    id
  }
}`

const updateFamiliesMutation = `
mutation UpdateFamilies($input: UpdateFamiliesInput!) {
  updateFamilies(input: $input) {
    id
  }
}`

// Client talks to the GraphQL data service. All calls go through a
// circuit breaker so a degraded backend sheds load quickly; a rejected
// call surfaces as a remote error and the sync engine retries it on a
// later pass.
type Client struct {
	gql     *graphql.Client
	apiKey  string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a data service client for the given endpoint
func NewClient(endpoint, apiKey string, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "data-service",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		gql:     graphql.NewClient(endpoint),
		apiKey:  apiKey,
		breaker: breaker,
		logger:  logger,
	}
}

// CreatePerson inserts a person record
func (c *Client) CreatePerson(ctx context.Context, record snapshot.PersonRecord) error {
	req := graphql.NewRequest(createPersonsMutation)
	req.Var("input", personInput(record))
	return c.run(ctx, req)
}

// UpdatePerson overwrites an existing person record
func (c *Client) UpdatePerson(ctx context.Context, record snapshot.PersonRecord) error {
	req := graphql.NewRequest(updatePersonsMutation)
	req.Var("input", personInput(record))
	return c.run(ctx, req)
}

// CreateFamily inserts a family record. The members list travels as a
// JSON-encoded string, which is what the schema's AWSJSON field expects.
func (c *Client) CreateFamily(ctx context.Context, record snapshot.FamilyRecord) error {
	req := graphql.NewRequest(createFamiliesMutation)
	req.Var("input", familyInput(record))
	return c.run(ctx, req)
}

// UpdateFamily overwrites an existing family record
func (c *Client) UpdateFamily(ctx context.Context, record snapshot.FamilyRecord) error {
	req := graphql.NewRequest(updateFamiliesMutation)
	req.Var("input", familyInput(record))
	return c.run(ctx, req)
}

func personInput(record snapshot.PersonRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":     record.ID,
		"name":   record.Name,
		"gender": record.Gender,
	}
}

func familyInput(record snapshot.FamilyRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":      record.ID,
		"name":    record.Signature,
		"members": record.MembersJSON(),
	}
}

func (c *Client) run(ctx context.Context, req *graphql.Request) error {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	var resp struct {
		ID string `json:"id"`
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.gql.Run(ctx, req, &resp)
	})
	if err != nil {
		return apperrors.NewRemoteError("data-service", err)
	}
	return nil
}
