package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kitchenwise/recipechat/internal/crawl"
	"github.com/kitchenwise/recipechat/internal/extract"
	"github.com/kitchenwise/recipechat/internal/vectorstore"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Upload(ctx context.Context, docs []vectorstore.Document) (vectorstore.UploadReport, error) {
	args := m.Called(ctx, docs)
	return args.Get(0).(vectorstore.UploadReport), args.Error(1)
}

type MockGraph struct {
	mock.Mock
}

func (m *MockGraph) UpsertRecipe(ctx context.Context, recipe extract.Recipe, id string) error {
	return m.Called(ctx, recipe, id).Error(0)
}

const recipePage = `<html><body>
<h1>Garlic Butter</h1>
<div class="field--name-field-ingredient-fullname">2 cloves Garlic</div>
<p class="coh-paragraph">Crush the garlic into the butter</p>
</body></html>`

func TestPipelineRecipePage(t *testing.T) {
	embedder := new(MockEmbedder)
	index := new(MockIndex)
	graph := new(MockGraph)
	pipeline := NewPipeline(embedder, index, graph, "/recipe/", nil)

	url := "https://site.test/recipe/garlic-butter"
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil).Once()

	var uploaded []vectorstore.Document
	index.On("Upload", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		uploaded = args.Get(1).([]vectorstore.Document)
	}).Return(vectorstore.UploadReport{Succeeded: 1}, nil).Once()
	graph.On("UpsertRecipe", mock.Anything, mock.Anything, DocumentID(url)).Return(nil).Once()

	err := pipeline.HandlePage(context.Background(), crawl.Page{URL: url, Body: []byte(recipePage)})
	require.NoError(t, err)

	report, err := pipeline.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Pages)
	require.Equal(t, 1, report.Recipes)
	require.Zero(t, report.GraphErrors)

	require.Len(t, uploaded, 1)
	require.Equal(t, DocumentID(url), uploaded[0].ID)
	require.Equal(t, TypeRecipe, uploaded[0].Type)
	require.True(t, strings.HasPrefix(uploaded[0].Text, "Recipe: Garlic Butter"))
	require.Equal(t, []float32{0.1, 0.2}, uploaded[0].Embedding)

	embedder.AssertExpectations(t)
	index.AssertExpectations(t)
	graph.AssertExpectations(t)
}

func TestPipelineInformationPage(t *testing.T) {
	embedder := new(MockEmbedder)
	index := new(MockIndex)
	graph := new(MockGraph)
	pipeline := NewPipeline(embedder, index, graph, "/recipe/", nil)

	url := "https://site.test/about"
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1}, nil).Once()

	var uploaded []vectorstore.Document
	index.On("Upload", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		uploaded = args.Get(1).([]vectorstore.Document)
	}).Return(vectorstore.UploadReport{Succeeded: 1}, nil).Once()

	body := `<html><body><h1>About Us</h1><p>We make recipes.</p></body></html>`
	require.NoError(t, pipeline.HandlePage(context.Background(), crawl.Page{URL: url, Body: []byte(body)}))

	report, err := pipeline.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Pages)
	require.Zero(t, report.Recipes)

	require.Len(t, uploaded, 1)
	require.Equal(t, TypeInformation, uploaded[0].Type)
	require.Equal(t, "Link: https://site.test/about\nAbout Us\nWe make recipes.", uploaded[0].Text)

	// Nothing to upsert for an information page.
	graph.AssertNotCalled(t, "UpsertRecipe", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineEmptyPageStillIndexed(t *testing.T) {
	embedder := new(MockEmbedder)
	index := new(MockIndex)
	graph := new(MockGraph)
	pipeline := NewPipeline(embedder, index, graph, "/recipe/", nil)

	embedder.On("Embed", mock.Anything, "Link: https://site.test/empty\n").Return([]float32{1}, nil).Once()
	index.On("Upload", mock.Anything, mock.Anything).Return(vectorstore.UploadReport{Succeeded: 1}, nil).Once()

	body := `<html><body><header><p>Only chrome</p></header></body></html>`
	require.NoError(t, pipeline.HandlePage(context.Background(), crawl.Page{URL: "https://site.test/empty", Body: []byte(body)}))

	report, err := pipeline.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Pages)
	embedder.AssertExpectations(t)
}

func TestPipelinePrefersFinalURL(t *testing.T) {
	embedder := new(MockEmbedder)
	index := new(MockIndex)
	graph := new(MockGraph)
	pipeline := NewPipeline(embedder, index, graph, "/recipe/", nil)

	final := "https://site.test/recipe/garlic-butter"
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1}, nil).Once()

	var uploaded []vectorstore.Document
	index.On("Upload", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		uploaded = args.Get(1).([]vectorstore.Document)
	}).Return(vectorstore.UploadReport{Succeeded: 1}, nil).Once()
	graph.On("UpsertRecipe", mock.Anything, mock.Anything, DocumentID(final)).Return(nil).Once()

	page := crawl.Page{
		URL:      "https://site.test/r/short",
		FinalURL: final,
		Body:     []byte(recipePage),
	}
	require.NoError(t, pipeline.HandlePage(context.Background(), page))

	_, err := pipeline.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, DocumentID(final), uploaded[0].ID)
	require.Equal(t, TypeRecipe, uploaded[0].Type)
	graph.AssertExpectations(t)
}

func TestFlushIsolatesGraphFailures(t *testing.T) {
	embedder := new(MockEmbedder)
	index := new(MockIndex)
	graph := new(MockGraph)
	pipeline := NewPipeline(embedder, index, graph, "/recipe/", nil)

	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{1}, nil).Twice()
	index.On("Upload", mock.Anything, mock.Anything).Return(vectorstore.UploadReport{Succeeded: 2}, nil).Once()

	first := "https://site.test/recipe/one"
	second := "https://site.test/recipe/two"
	graph.On("UpsertRecipe", mock.Anything, mock.Anything, DocumentID(first)).Return(errors.New("neo4j down")).Once()
	graph.On("UpsertRecipe", mock.Anything, mock.Anything, DocumentID(second)).Return(nil).Once()

	require.NoError(t, pipeline.HandlePage(context.Background(), crawl.Page{URL: first, Body: []byte(recipePage)}))
	require.NoError(t, pipeline.HandlePage(context.Background(), crawl.Page{URL: second, Body: []byte(recipePage)}))

	report, err := pipeline.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.GraphErrors)
	graph.AssertExpectations(t)
}

func TestHandlePageEmbedError(t *testing.T) {
	embedder := new(MockEmbedder)
	index := new(MockIndex)
	graph := new(MockGraph)
	pipeline := NewPipeline(embedder, index, graph, "/recipe/", nil)

	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited")).Once()

	err := pipeline.HandlePage(context.Background(), crawl.Page{
		URL:  "https://site.test/about",
		Body: []byte(`<html><body><p>hi</p></body></html>`),
	})
	require.Error(t, err)

	// The failed page never reaches the index.
	index.On("Upload", mock.Anything, mock.Anything).Return(vectorstore.UploadReport{}, nil).Once()
	report, err := pipeline.Flush(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Pages)
}
