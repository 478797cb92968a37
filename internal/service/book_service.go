package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go-bookshelf-api/internal/event"
	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/pkg/apierror"
)

type BookService struct {
	books   BookStore
	authors AuthorStore
	bus     event.Bus
	audit   *AuditService
	now     func() time.Time
}

func NewBookService(books BookStore, authors AuthorStore, bus event.Bus, audit *AuditService) *BookService {
	return &BookService{
		books:   books,
		authors: authors,
		bus:     bus,
		audit:   audit,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *BookService) List(ctx context.Context, query model.BookQuery) ([]model.Book, model.Meta, error) {
	query.Page, query.PageSize = model.NormalizePage(query.Page, query.PageSize, model.DefaultPageSize)

	books, total, err := s.books.List(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return books, model.NewMeta(query.Page, query.PageSize, total), nil
}

func (s *BookService) Get(ctx context.Context, id int64) (model.Book, error) {
	return s.books.FindByID(ctx, id)
}

func (s *BookService) Create(ctx context.Context, input model.BookInput, actor model.AuditActor) (model.Book, error) {
	fields := apierror.FieldErrors{}
	if input.Title == nil {
		fields.Add("title", msgRequired)
	}
	if input.PublicationYear == nil {
		fields.Add("publication_year", msgRequired)
	}
	if input.Author == nil {
		fields.Add("author", msgRequired)
	}

	book, err := s.validate(ctx, model.Book{}, input, fields)
	if err != nil {
		return model.Book{}, err
	}

	created, err := s.books.Create(ctx, book)
	if err != nil {
		return model.Book{}, err
	}

	s.audit.Log(ctx, "book.create", actor, "success", bookResource(created.ID), nil, created, "")
	s.publish(event.TypeBookCreated, actor.UserID, created)
	slog.Info("book created", "book_id", created.ID, "title", created.Title, "user_id", actor.UserID)
	return created, nil
}

// Update applies input to the stored book. With partial set, absent fields
// keep their stored values; otherwise every field is required.
func (s *BookService) Update(ctx context.Context, id int64, input model.BookInput, partial bool, actor model.AuditActor) (model.Book, error) {
	current, err := s.books.FindByID(ctx, id)
	if err != nil {
		return model.Book{}, err
	}

	fields := apierror.FieldErrors{}
	if !partial {
		if input.Title == nil {
			fields.Add("title", msgRequired)
		}
		if input.PublicationYear == nil {
			fields.Add("publication_year", msgRequired)
		}
		if input.Author == nil {
			fields.Add("author", msgRequired)
		}
	}

	book, err := s.validate(ctx, current, input, fields)
	if err != nil {
		return model.Book{}, err
	}
	book.ID = current.ID

	updated, err := s.books.Update(ctx, book)
	if err != nil {
		return model.Book{}, err
	}

	s.audit.Log(ctx, "book.update", actor, "success", bookResource(updated.ID), current, updated, "")
	s.publish(event.TypeBookUpdated, actor.UserID, updated)
	return updated, nil
}

func (s *BookService) Delete(ctx context.Context, id int64, actor model.AuditActor) error {
	current, err := s.books.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Log(ctx, "book.delete", actor, "success", bookResource(id), current, nil, "")
	s.publish(event.TypeBookDeleted, actor.UserID, map[string]int64{"id": id})
	slog.Info("book deleted", "book_id", id, "user_id", actor.UserID)
	return nil
}

// validate merges input over base, checks every present field and finally
// rejects a case-insensitive duplicate of (title, author, year).
func (s *BookService) validate(ctx context.Context, base model.Book, input model.BookInput, fields apierror.FieldErrors) (model.Book, error) {
	merged := base

	if input.Title != nil {
		title, msg := validateBookTitle(*input.Title)
		if msg != "" {
			fields.Add("title", msg)
		}
		merged.Title = title
	}

	if input.PublicationYear != nil {
		if msg := validatePublicationYear(*input.PublicationYear, s.now()); msg != "" {
			fields.Add("publication_year", msg)
		}
		merged.PublicationYear = *input.PublicationYear
	}

	if input.Author != nil {
		author, err := s.authors.FindByID(ctx, *input.Author)
		switch {
		case errors.Is(err, model.ErrAuthorNotFound):
			fields.Add("author", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *input.Author))
		case err != nil:
			return model.Book{}, err
		default:
			merged.AuthorID = author.ID
			merged.AuthorName = author.Name
		}
	}

	if err := fields.Err(); err != nil {
		return model.Book{}, err
	}

	duplicate, err := s.books.ExistsDuplicate(ctx, merged.Title, merged.AuthorID, merged.PublicationYear, merged.ID)
	if err != nil {
		return model.Book{}, err
	}
	if duplicate {
		return model.Book{}, apierror.Validation(map[string]string{
			apierror.NonFieldKey: fmt.Sprintf("A book with title '%s' by %s published in %d already exists.",
				merged.Title, merged.AuthorName, merged.PublicationYear),
		})
	}

	return merged, nil
}

func (s *BookService) publish(eventType event.Type, actorID int64, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(eventType, actorID, payload))
}

func bookResource(id int64) string {
	return "book:" + strconv.FormatInt(id, 10)
}
