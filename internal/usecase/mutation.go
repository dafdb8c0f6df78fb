package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sacavia/feedengine/internal/domain"
	"github.com/sacavia/feedengine/internal/metrics"
	"github.com/sacavia/feedengine/internal/store"
	"github.com/sacavia/feedengine/internal/utils"
)

var tracer = otel.Tracer("feed")

type MutationKind string

const (
	MutationLike   MutationKind = "like"
	MutationUnlike MutationKind = "unlike"
	MutationSave   MutationKind = "save"
	MutationUnsave MutationKind = "unsave"
	MutationShare  MutationKind = "share"
	MutationDelete MutationKind = "delete"
)

type transition func(domain.Engagement) domain.Engagement

// Pending tracks one optimistic mutation until the server answers.
type Pending struct {
	Kind    MutationKind
	PostID  string
	applied bool
	done    chan struct{}
	err     error
	inverse transition
	uc      *MutationUsecase
}

// Applied reports whether the mutation changed local state and was sent to the server.
func (p *Pending) Applied() bool {
	return p.applied
}

// Wait blocks until the server confirmed or rejected the mutation.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rollback restores the engagement that was in place before the mutation.
// It is never called by the engine itself.
func (p *Pending) Rollback(ctx context.Context) error {
	if p.Kind == MutationShare {
		return fmt.Errorf("share cannot be rolled back")
	}
	if p.inverse == nil {
		return nil
	}
	return p.uc.seq.Do(ctx, func() {
		p.uc.store.MutateEngagement(p.PostID, p.inverse)
		p.uc.store.ClearPending(p.PostID)
	})
}

type plan struct {
	kind    MutationKind
	forward transition
	inverse transition
	call    func(ctx context.Context, postID string) error
	skip    bool
}

type MutationUsecase struct {
	store     *store.Store
	seq       *utils.Sequence
	gateway   PostGateway
	creds     Credentials
	publisher EventPublisher
	metrics   *metrics.Metrics
}

func NewMutationUsecase(
	st *store.Store,
	seq *utils.Sequence,
	gateway PostGateway,
	creds Credentials,
	publisher EventPublisher,
	m *metrics.Metrics,
) *MutationUsecase {
	return &MutationUsecase{
		store:     st,
		seq:       seq,
		gateway:   gateway,
		creds:     creds,
		publisher: publisher,
		metrics:   m,
	}
}

func like(e domain.Engagement) domain.Engagement {
	if e.IsLiked {
		return e
	}
	e.IsLiked = true
	e.LikeCount++
	return e
}

func unlike(e domain.Engagement) domain.Engagement {
	if !e.IsLiked {
		return e
	}
	e.IsLiked = false
	e.LikeCount = max(0, e.LikeCount-1)
	return e
}

func save(e domain.Engagement) domain.Engagement {
	if e.IsSaved {
		return e
	}
	e.IsSaved = true
	e.SaveCount++
	return e
}

func unsave(e domain.Engagement) domain.Engagement {
	if !e.IsSaved {
		return e
	}
	e.IsSaved = false
	e.SaveCount = max(0, e.SaveCount-1)
	return e
}

func share(e domain.Engagement) domain.Engagement {
	e.ShareCount++
	return e
}

func (uc *MutationUsecase) likePlan() plan {
	return plan{kind: MutationLike, forward: like, inverse: unlike, call: uc.gateway.Like}
}

func (uc *MutationUsecase) unlikePlan() plan {
	return plan{kind: MutationUnlike, forward: unlike, inverse: like, call: uc.gateway.Unlike}
}

func (uc *MutationUsecase) savePlan() plan {
	return plan{kind: MutationSave, forward: save, inverse: unsave, call: uc.gateway.Save}
}

func (uc *MutationUsecase) unsavePlan() plan {
	return plan{kind: MutationUnsave, forward: unsave, inverse: save, call: uc.gateway.Unsave}
}

func (uc *MutationUsecase) Like(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(domain.Engagement) plan { return uc.likePlan() })
}

func (uc *MutationUsecase) Unlike(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(domain.Engagement) plan { return uc.unlikePlan() })
}

func (uc *MutationUsecase) ToggleLike(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(e domain.Engagement) plan {
		if e.IsLiked {
			return uc.unlikePlan()
		}
		return uc.likePlan()
	})
}

// DoubleTapLike likes the post unless it is already liked, in which case
// nothing is sent.
func (uc *MutationUsecase) DoubleTapLike(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(e domain.Engagement) plan {
		p := uc.likePlan()
		p.skip = e.IsLiked
		return p
	})
}

func (uc *MutationUsecase) Save(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(domain.Engagement) plan { return uc.savePlan() })
}

func (uc *MutationUsecase) Unsave(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(domain.Engagement) plan { return uc.unsavePlan() })
}

func (uc *MutationUsecase) ToggleSave(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(e domain.Engagement) plan {
		if e.IsSaved {
			return uc.unsavePlan()
		}
		return uc.savePlan()
	})
}

// IncrementShare bumps the share count. Shares only go up.
func (uc *MutationUsecase) IncrementShare(ctx context.Context, postID string) (*Pending, error) {
	return uc.run(ctx, postID, func(domain.Engagement) plan {
		return plan{kind: MutationShare, forward: share, call: uc.gateway.Share}
	})
}

func (uc *MutationUsecase) run(ctx context.Context, postID string, choose func(domain.Engagement) plan) (*Pending, error) {
	if _, ok := uc.creds.GetValidToken(); !ok {
		return nil, domain.ErrAuthRequired
	}

	var (
		found   bool
		chosen  plan
		changed bool
	)
	err := uc.seq.Do(ctx, func() {
		item, ok := uc.store.Get(postID)
		if !ok {
			return
		}
		post, ok := item.(domain.Post)
		if !ok {
			return
		}
		found = true
		chosen = choose(post.Engagement)
		if chosen.skip {
			return
		}
		changed = uc.store.MutateEngagement(postID, chosen.forward)
		uc.store.MarkPending(postID)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NotFoundError{Resource: "post " + postID}
	}

	p := &Pending{
		Kind:    chosen.kind,
		PostID:  postID,
		applied: !chosen.skip,
		done:    make(chan struct{}),
		uc:      uc,
	}
	if changed {
		p.inverse = chosen.inverse
	}

	if chosen.skip {
		close(p.done)
		return p, nil
	}

	go uc.confirm(context.WithoutCancel(ctx), p, chosen.call)
	return p, nil
}

// confirm sends the mutation. A rejection is recorded on the handle and
// logged; local state is left as is.
func (uc *MutationUsecase) confirm(ctx context.Context, p *Pending, call func(ctx context.Context, postID string) error) {
	ctx, span := tracer.Start(ctx, "Mutation.Usecase.Confirm")
	defer span.End()
	defer close(p.done)

	span.SetAttributes(
		attribute.String("kind", string(p.Kind)),
		attribute.String("postId", p.PostID),
	)

	err := call(ctx, p.PostID)
	if err != nil {
		p.err = err
		span.RecordError(errors.Wrap(err, "mutation not confirmed"))
		uc.metrics.MutationFailed(string(p.Kind))
		slog.WarnContext(
			ctx, "Mutation not confirmed",
			slog.String("kind", string(p.Kind)),
			slog.String("postId", p.PostID),
			slog.String("error", err.Error()),
			slog.String("module", "mutation"),
		)
	}
}

// DeletePost removes a post once the server confirmed the deletion and
// announces it to other holders of the feed.
func (uc *MutationUsecase) DeletePost(ctx context.Context, postID string) error {
	ctx, span := tracer.Start(ctx, "Mutation.Usecase.DeletePost")
	defer span.End()

	if _, ok := uc.creds.GetValidToken(); !ok {
		return domain.ErrAuthRequired
	}

	err := uc.gateway.Delete(ctx, postID)
	if err != nil {
		span.RecordError(errors.Wrap(err, "delete not confirmed"))
		uc.metrics.MutationFailed(string(MutationDelete))
		slog.ErrorContext(
			ctx, "Failed to delete post",
			slog.String("postId", postID),
			slog.String("error", err.Error()),
			slog.String("module", "mutation"),
		)
		return fmt.Errorf("failed to delete post: %w", err)
	}

	err = uc.seq.Do(ctx, func() {
		uc.store.RemoveByID(postID)
	})
	if err != nil {
		return err
	}

	if uc.publisher != nil {
		err = uc.publisher.Publish(ctx, domain.PostDeleted{PostID: postID})
		if err != nil {
			slog.WarnContext(
				ctx, "Failed to publish post deletion",
				slog.String("postId", postID),
				slog.String("error", err.Error()),
				slog.String("module", "mutation"),
			)
		}
	}

	return nil
}
