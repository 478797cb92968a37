package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/repository"
)

func TestAuthorService_Create(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		input   *string
		message string
	}{
		{"missing", nil, msgRequired},
		{"blank", ptr("   "), msgBlank},
		{"too short", ptr(" A "), "Author name must be at least 2 characters long."},
		{"digits", ptr("R2D2"), "Author name can only contain letters, spaces, hyphens, apostrophes, and periods."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authors := new(repository.MockAuthorStore)
			svc := NewAuthorService(authors, new(repository.MockBookStore), nil, nil)

			_, err := svc.Create(ctx, model.AuthorInput{Name: tc.input}, model.AuditActor{})

			fields := fieldErrors(t, err)
			assert.Equal(t, tc.message, fields["name"])
			authors.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("trims and stores valid names", func(t *testing.T) {
		authors := new(repository.MockAuthorStore)
		svc := NewAuthorService(authors, new(repository.MockBookStore), nil, nil)
		authors.On("Create", ctx, "Ursula K. Le Guin").Return(model.Author{ID: 2, Name: "Ursula K. Le Guin"}, nil)

		author, err := svc.Create(ctx, model.AuthorInput{Name: ptr("  Ursula K. Le Guin ")}, model.AuditActor{})

		require.NoError(t, err)
		assert.Equal(t, int64(2), author.ID)
		authors.AssertExpectations(t)
	})
}

func TestAuthorService_Get(t *testing.T) {
	ctx := context.Background()
	authors := new(repository.MockAuthorStore)
	books := new(repository.MockBookStore)
	svc := NewAuthorService(authors, books, nil, nil)

	authors.On("FindByID", ctx, int64(1)).Return(model.Author{ID: 1, Name: "Frank Herbert"}, nil)
	books.On("ListByAuthor", ctx, int64(1)).Return([]model.Book{
		{ID: 1, Title: "Dune", PublicationYear: 1965},
		{ID: 2, Title: "Children of Dune", PublicationYear: 1976},
		{ID: 3, Title: "Dune Messiah", PublicationYear: 1969},
	}, nil)
	authors.On("FindByID", ctx, int64(2)).Return(model.Author{ID: 2, Name: "New Writer"}, nil)
	books.On("ListByAuthor", ctx, int64(2)).Return([]model.Book{}, nil)

	detail, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.BooksCount)
	require.NotNil(t, detail.LatestPublicationYear)
	assert.Equal(t, 1976, *detail.LatestPublicationYear)

	empty, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, empty.BooksCount)
	assert.Nil(t, empty.LatestPublicationYear)
}

func TestAuthorService_Update(t *testing.T) {
	ctx := context.Background()
	authors := new(repository.MockAuthorStore)
	svc := NewAuthorService(authors, new(repository.MockBookStore), nil, nil)

	authors.On("FindByID", ctx, int64(4)).Return(model.Author{ID: 4, Name: "Old Name", BooksCount: 2}, nil)
	authors.On("Update", ctx, int64(4), "New Name").Return(nil)

	unchanged, err := svc.Update(ctx, 4, model.AuthorInput{}, true, model.AuditActor{})
	require.NoError(t, err)
	assert.Equal(t, "Old Name", unchanged.Name)

	updated, err := svc.Update(ctx, 4, model.AuthorInput{Name: ptr("New Name")}, false, model.AuditActor{})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, 2, updated.BooksCount)

	_, err = svc.Update(ctx, 4, model.AuthorInput{}, false, model.AuditActor{})
	assert.Equal(t, msgRequired, fieldErrors(t, err)["name"])
	authors.AssertNumberOfCalls(t, "Update", 1)
}

func TestAuthorService_Delete(t *testing.T) {
	ctx := context.Background()
	authors := new(repository.MockAuthorStore)
	svc := NewAuthorService(authors, new(repository.MockBookStore), nil, nil)

	authors.On("FindByID", ctx, int64(9)).Return(model.Author{}, model.ErrAuthorNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 9, model.AuditActor{}), model.ErrAuthorNotFound)
	authors.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
