package neosocial

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
)

func TestParseTags(t *testing.T) {
	meta, err := parseTags[models.ListItem]()
	require.NoError(t, err)

	assert.Equal(t, "ListItem", meta.Label)
	assert.Equal(t, "ID", meta.PKField)
	assert.Equal(t, "id", meta.PKProp)
	assert.Equal(t, "communityDiscussionMessageId", meta.Mappings["CommunityDiscussionMessageID"])

	type labelled struct {
		Key string `crud:"pk,property:key,label:Tag"`
	}
	meta, err = parseTags[labelled]()
	require.NoError(t, err)
	assert.Equal(t, "Tag", meta.Label)

	type noPK struct {
		Name string `crud:"property:name"`
	}
	_, err = parseTags[noPK]()
	assert.Error(t, err)

	_, err = parseTags[int]()
	assert.Error(t, err)
}

func TestPropertyValue(t *testing.T) {
	type sample struct {
		Ptr   *string
		Nil   *string
		Kind  models.TargetKind
		When  time.Time
		Never time.Time
		Count int
	}
	s := sample{Ptr: ref("x"), Kind: models.TargetPost, When: fixedNow, Count: 3}
	v := reflect.ValueOf(s)

	assert.Equal(t, "x", propertyValue(v.FieldByName("Ptr")))
	assert.Nil(t, propertyValue(v.FieldByName("Nil")))
	assert.Equal(t, "post", propertyValue(v.FieldByName("Kind")))
	assert.Equal(t, fixedNow, propertyValue(v.FieldByName("When")))
	assert.Nil(t, propertyValue(v.FieldByName("Never")))
	assert.Equal(t, 3, propertyValue(v.FieldByName("Count")))
}

func TestAssignProperty(t *testing.T) {
	var post models.Post
	v := reflect.ValueOf(&post).Elem()

	require.NoError(t, assignProperty(v.FieldByName("Image"), "cover.png"))
	require.NoError(t, assignProperty(v.FieldByName("Tags"), []any{"go", "graphs"}))
	require.NoError(t, assignProperty(v.FieldByName("CreatedAt"), neo4j.LocalDateTime(fixedNow)))
	require.NoError(t, assignProperty(v.FieldByName("Text"), "hello"))

	require.NotNil(t, post.Image)
	assert.Equal(t, "cover.png", *post.Image)
	assert.Equal(t, []string{"go", "graphs"}, post.Tags)
	assert.True(t, fixedNow.Equal(post.CreatedAt))
	assert.Equal(t, "hello", post.Text)

	require.NoError(t, assignProperty(v.FieldByName("Image"), nil))
	assert.Nil(t, post.Image)

	var counter struct{ N int }
	require.NoError(t, assignProperty(reflect.ValueOf(&counter).Elem().Field(0), int64(7)))
	assert.Equal(t, 7, counter.N)

	assert.Error(t, assignProperty(v.FieldByName("Text"), int64(65)), "integers never become strings")
}

func TestRepositorySave(t *testing.T) {
	runner := new(mockRunner)
	var params map[string]interface{}
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { params = args.Get(2).(map[string]interface{}) }).
		Return(&neo4j.EagerResult{}, nil).Once()

	repo, err := NewRepository[models.User](runner)
	require.NoError(t, err)
	assert.Equal(t, LabelUser, repo.Label())

	require.NoError(t, repo.Save(context.Background(), &models.User{ID: "u1", Username: "alice"}))

	var bound []interface{}
	for _, v := range params {
		bound = append(bound, v)
	}
	assert.Contains(t, bound, "u1")
	assert.Contains(t, bound, "alice")
	runner.AssertExpectations(t)
}

func TestRepositorySaveStoreError(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	repo, err := NewRepository[models.Community](runner)
	require.NoError(t, err)

	err = repo.Save(context.Background(), &models.Community{ID: "c1"})
	assert.ErrorIs(t, err, ErrStore)
}

func TestRepositoryFindByID(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(result([]string{"n"}, []any{node("4:p", []string{"Post"}, map[string]any{
			"id":        "p1",
			"userId":    "u2",
			"text":      "hi",
			"image":     nil,
			"tags":      []any{"go"},
			"createdAt": fixedNow,
		})}), nil).Once()

	repo, err := NewRepository[models.Post](runner)
	require.NoError(t, err)

	post, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, &models.Post{ID: "p1", UserID: "u2", Text: "hi", Tags: []string{"go"}, CreatedAt: fixedNow}, post)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(result([]string{"n"}), nil).Once()

	repo, err := NewRepository[models.Post](runner)
	require.NoError(t, err)

	_, err = repo.FindByID(context.Background(), "p404")
	require.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, NotFoundError{Label: "Post", ID: "p404"}, *nf)
}

func TestRepositoryDelete(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(q string) bool { return len(q) > 0 }), mock.Anything).
		Return(&neo4j.EagerResult{}, nil).Once()

	repo, err := NewRepository[models.List](runner)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), "l1"))
	runner.AssertExpectations(t)
}
