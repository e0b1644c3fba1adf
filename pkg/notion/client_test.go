package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) FindPageByTitle(ctx context.Context, dbID, title string) (string, bool, error) {
	args := m.Called(ctx, dbID, title)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *MockClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func TestMockClientSatisfiesInterface(t *testing.T) {
	t.Parallel()
	var _ Client = (*MockClient)(nil)
}

func TestNewClientReturnsClient(t *testing.T) {
	c := NewClient("test-token")
	assert.NotNil(t, c)
}

func TestTitleQuery_DefaultProperty(t *testing.T) {
	c := NewClient("test-token").(*notionClient)
	req := c.titleQuery("PocketChef")

	pf, ok := req.Filter.(notionapi.PropertyFilter)
	require.True(t, ok)
	assert.Equal(t, "Name", pf.Property)
	require.NotNil(t, pf.RichText)
	assert.Equal(t, "PocketChef", pf.RichText.Equals)
	assert.Equal(t, 1, req.PageSize)
}

func TestTitleQuery_OverriddenProperty(t *testing.T) {
	c := NewClient("test-token", WithTitleProperty("Idea")).(*notionClient)
	req := c.titleQuery("PocketChef")

	pf := req.Filter.(notionapi.PropertyFilter)
	assert.Equal(t, "Idea", pf.Property)
}

func TestCreatePageError(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("CreatePage", ctx, mock.AnythingOfType("*notionapi.PageCreateRequest")).
		Return(nil, assert.AnError)

	page, err := mc.CreatePage(ctx, &notionapi.PageCreateRequest{})
	assert.Error(t, err)
	assert.Nil(t, page)
	mc.AssertExpectations(t)
}
