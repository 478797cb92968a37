package service

import (
	"context"
	"log/slog"
	"strconv"

	"go-bookshelf-api/internal/event"
	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/pkg/apierror"
)

type AuthorService struct {
	authors AuthorStore
	books   BookStore
	bus     event.Bus
	audit   *AuditService
}

func NewAuthorService(authors AuthorStore, books BookStore, bus event.Bus, audit *AuditService) *AuthorService {
	return &AuthorService{authors: authors, books: books, bus: bus, audit: audit}
}

func (s *AuthorService) List(ctx context.Context, query model.AuthorQuery) ([]model.Author, model.Meta, error) {
	query.Page, query.PageSize = model.NormalizePage(query.Page, query.PageSize, model.DefaultPageSize)

	authors, total, err := s.authors.List(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return authors, model.NewMeta(query.Page, query.PageSize, total), nil
}

// Get returns the author with nested books and the most recent publication
// year, which is nil for an author without books.
func (s *AuthorService) Get(ctx context.Context, id int64) (model.AuthorDetail, error) {
	author, err := s.authors.FindByID(ctx, id)
	if err != nil {
		return model.AuthorDetail{}, err
	}

	books, err := s.books.ListByAuthor(ctx, id)
	if err != nil {
		return model.AuthorDetail{}, err
	}

	detail := model.AuthorDetail{Author: author, Books: books}
	detail.BooksCount = len(books)
	for _, book := range books {
		if detail.LatestPublicationYear == nil || book.PublicationYear > *detail.LatestPublicationYear {
			year := book.PublicationYear
			detail.LatestPublicationYear = &year
		}
	}
	return detail, nil
}

func (s *AuthorService) Create(ctx context.Context, input model.AuthorInput, actor model.AuditActor) (model.Author, error) {
	name, msg := validateAuthorName(input.Name)
	if msg != "" {
		return model.Author{}, apierror.Validation(map[string]string{"name": msg})
	}

	created, err := s.authors.Create(ctx, name)
	if err != nil {
		return model.Author{}, err
	}

	s.audit.Log(ctx, "author.create", actor, "success", authorResource(created.ID), nil, created, "")
	s.publish(event.TypeAuthorCreated, actor.UserID, created)
	return created, nil
}

// Update renames an author. A partial update without a name leaves the
// author unchanged.
func (s *AuthorService) Update(ctx context.Context, id int64, input model.AuthorInput, partial bool, actor model.AuditActor) (model.Author, error) {
	current, err := s.authors.FindByID(ctx, id)
	if err != nil {
		return model.Author{}, err
	}

	if partial && input.Name == nil {
		return current, nil
	}

	name, msg := validateAuthorName(input.Name)
	if msg != "" {
		return model.Author{}, apierror.Validation(map[string]string{"name": msg})
	}

	if err := s.authors.Update(ctx, id, name); err != nil {
		return model.Author{}, err
	}

	updated := current
	updated.Name = name
	s.audit.Log(ctx, "author.update", actor, "success", authorResource(id), current, updated, "")
	s.publish(event.TypeAuthorUpdated, actor.UserID, updated)
	return updated, nil
}

// Delete removes the author together with every book it wrote.
func (s *AuthorService) Delete(ctx context.Context, id int64, actor model.AuditActor) error {
	current, err := s.authors.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authors.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Log(ctx, "author.delete", actor, "success", authorResource(id), current, nil, "")
	s.publish(event.TypeAuthorDeleted, actor.UserID, map[string]int64{"id": id})
	slog.Info("author deleted", "author_id", id, "books_removed", current.BooksCount, "user_id", actor.UserID)
	return nil
}

func (s *AuthorService) publish(eventType event.Type, actorID int64, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(eventType, actorID, payload))
}

func authorResource(id int64) string {
	return "author:" + strconv.FormatInt(id, 10)
}
