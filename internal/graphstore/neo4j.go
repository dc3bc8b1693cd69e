// Package graphstore writes recipes into the Neo4j knowledge graph and
// executes generated read-only queries against it.
package graphstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/config"
	"github.com/kitchenwise/recipechat/internal/extract"
)

// upsertCypher merges the recipe and its related nodes by natural key.
// Re-running it for the same recipe id creates no new nodes or
// relationships.
const upsertCypher = `
MERGE (r:Recipe {id: $id})
SET r.title = $title,
    r.url = $url,
    r.image = $image,
    r.instructions = $instructions

MERGE (s:SkillLevel {name: $skill_level})
MERGE (r)-[:HAS_SKILL_LEVEL]->(s)

MERGE (t:Time {minutes: $time})
MERGE (r)-[:HAS_TIME]->(t)

MERGE (v:Servings {count: $servings})
MERGE (r)-[:HAS_SERVINGS]->(v)

FOREACH (tag IN $tags |
    MERGE (tagNode:Tag {name: tag})
    MERGE (r)-[:HAS_TAG]->(tagNode)
)

FOREACH (entry IN $ingredients |
    MERGE (i:Ingredient {name: entry.name})
    MERGE (r)-[rel:HAS_INGREDIENT]->(i)
    SET rel.amount = entry.amount
)
`

// Store talks to one Neo4j database.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// New builds a Store and verifies connectivity.
func New(ctx context.Context, cfg config.Neo4jConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("new neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Store{driver: driver, database: cfg.Database, logger: logger}, nil
}

// Close shuts down the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// UpsertRecipe merges one recipe into the graph.
func (s *Store) UpsertRecipe(ctx context.Context, recipe extract.Recipe, id string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()

	params := UpsertParams(recipe, id)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, upsertCypher, params)
	})
	if err != nil {
		return fmt.Errorf("upsert recipe %s: %w", id, err)
	}
	return nil
}

// UpsertParams maps a recipe onto the merge statement's parameters. String
// keys are lowercase-trimmed so "Flour" and "flour" merge to one node;
// absent optional fields take the merge-safe defaults.
func UpsertParams(recipe extract.Recipe, id string) map[string]any {
	skill := strings.ToLower(strings.TrimSpace(recipe.SkillLevel))
	if skill == "" {
		skill = "unknown"
	}

	servings := 0
	if recipe.Servings != nil {
		servings = *recipe.Servings
	}
	timeMinutes := 0
	if recipe.TimeMinutes != nil {
		timeMinutes = *recipe.TimeMinutes
	}

	tags := make([]any, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tags = append(tags, strings.ToLower(strings.TrimSpace(tag)))
	}

	sentinel := strings.ToLower(extract.Sentinel)
	ingredients := make([]any, 0, len(recipe.Ingredients))
	for _, raw := range recipe.Ingredients {
		parsed := extract.ParseIngredient(raw)
		// A nameless or sentinel ingredient would create a meaningless node.
		if parsed.Name == "" || parsed.Name == sentinel {
			continue
		}
		ingredients = append(ingredients, map[string]any{
			"name":   parsed.Name,
			"amount": parsed.Quantity,
		})
	}

	return map[string]any{
		"id":           id,
		"title":        strings.ToLower(strings.TrimSpace(recipe.Title)),
		"url":          recipe.URL,
		"image":        recipe.Image,
		"instructions": strings.Join(recipe.Instructions, "\n"),
		"skill_level":  skill,
		"servings":     servings,
		"time":         timeMinutes,
		"tags":         tags,
		"ingredients":  ingredients,
	}
}

// staticSchema describes the graph when introspection is unavailable.
const staticSchema = `Node labels: Recipe {id, title, url, image, instructions}, SkillLevel {name}, Time {minutes}, Servings {count}, Tag {name}, Ingredient {name}
Relationships: (Recipe)-[:HAS_SKILL_LEVEL]->(SkillLevel), (Recipe)-[:HAS_TIME]->(Time), (Recipe)-[:HAS_SERVINGS]->(Servings), (Recipe)-[:HAS_TAG]->(Tag), (Recipe)-[:HAS_INGREDIENT {amount}]->(Ingredient)`

// Schema returns a textual schema description used to ground query
// generation. It prefers live introspection and falls back to the static
// description the ingest pipeline guarantees.
func (s *Store) Schema(ctx context.Context) (string, error) {
	labels, lerr := s.readStrings(ctx, "CALL db.labels() YIELD label RETURN label")
	relTypes, rerr := s.readStrings(ctx, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType")
	if lerr != nil || rerr != nil || len(labels) == 0 {
		return staticSchema, nil
	}
	return fmt.Sprintf("Node labels: %s\nRelationship types: %s\n\n%s",
		strings.Join(labels, ", "), strings.Join(relTypes, ", "), staticSchema), nil
}

// ErrNotReadOnly rejects generated queries containing write clauses.
type ErrNotReadOnly struct {
	Clause string
}

func (e ErrNotReadOnly) Error() string {
	return fmt.Sprintf("generated query contains write clause %q", e.Clause)
}

var writeClauses = []string{
	"CREATE", "MERGE", "DELETE", "DETACH", "SET", "REMOVE", "DROP", "FOREACH", "LOAD CSV",
}

// EnsureReadOnly rejects a generated Cypher query unless it sticks to the
// read-only subset. The model's output is untrusted text; it never reaches
// the database unchecked.
func EnsureReadOnly(query string) error {
	upper := strings.ToUpper(query)
	for _, clause := range writeClauses {
		if containsWord(upper, clause) {
			return ErrNotReadOnly{Clause: clause}
		}
	}
	return nil
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}

// Query executes a validated read-only Cypher query and flattens the result
// rows into strings. Zero rows is an empty slice, not an error.
func (s *Store) Query(ctx context.Context, cypher string) ([]string, error) {
	if err := EnsureReadOnly(cypher); err != nil {
		return nil, err
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		var out []string
		for result.Next(ctx) {
			out = append(out, formatRecord(result.Record()))
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("run graph query: %w", err)
	}
	collected, _ := rows.([]string)
	return collected, nil
}

func (s *Store) readStrings(ctx context.Context, cypher string) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		var out []string
		for result.Next(ctx) {
			if len(result.Record().Values) > 0 {
				out = append(out, fmt.Sprint(result.Record().Values[0]))
			}
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, err
	}
	collected, _ := rows.([]string)
	return collected, nil
}

func formatRecord(record *neo4j.Record) string {
	parts := make([]string, 0, len(record.Values))
	for i, key := range record.Keys {
		parts = append(parts, fmt.Sprintf("%s: %v", key, record.Values[i]))
	}
	return strings.Join(parts, " | ")
}
