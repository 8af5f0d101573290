package handler

import (
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio-graph/internal/domain"
)

func TestRelationshipEndpoint_ComparesTwoPosts(t *testing.T) {
	env := newTestEnv(t)
	env.seedPets(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/relationship",
		`{"post_id_a":"cats","post_id_b":"dogs"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail domain.RelationshipDetail
	decodeBody(t, resp, &detail)

	assert.Equal(t, "cats", detail.PostA.ID)
	assert.Equal(t, "Post 1", detail.PostA.Label)
	assert.Equal(t, "dogs", detail.PostB.ID)
	assert.Equal(t, "Post 2", detail.PostB.Label)
	assert.InDelta(t, 0.992, detail.Similarity, 0.001)
	// No annotator is wired in the test env.
	assert.Equal(t, "AI analysis unavailable.", detail.Analysis)
}

func TestRelationshipEndpoint_MissingField(t *testing.T) {
	env := newTestEnv(t)
	env.seedPets(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/relationship",
		`{"post_id_a":"cats"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "validation", body["code"])
}

func TestRelationshipEndpoint_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/relationship", `{`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRelationshipEndpoint_UnknownPost(t *testing.T) {
	env := newTestEnv(t)
	env.seedPets(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/relationship",
		`{"post_id_a":"cats","post_id_b":"nope"}`)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "not_found", body["code"])
}
