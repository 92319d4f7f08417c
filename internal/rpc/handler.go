package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/phishbox/internal/auth"
	"github.com/rpggio/phishbox/internal/domain/email"
	"github.com/rpggio/phishbox/internal/domain/event"
	"github.com/rpggio/phishbox/internal/domain/participation"
	"github.com/rpggio/phishbox/internal/domain/report"
	"github.com/rpggio/phishbox/internal/domain/study"
	"github.com/rpggio/phishbox/internal/domain/user"
)

// ParticipationService defines participation operations needed by RPC.
type ParticipationService interface {
	Create(ctx context.Context, studyCode string) (*participation.Participation, error)
	Provision(ctx context.Context, studyID string, count int) ([]participation.Participation, error)
	ListInStudy(ctx context.Context, studyID string) ([]participation.Summary, error)
	ResolveByCode(ctx context.Context, code string) (*participation.View, error)
	Get(ctx context.Context, code string) (*participation.View, error)
	GiveConsent(ctx context.Context, id string) (*participation.Participation, error)
	Start(ctx context.Context, id string) (*participation.Participation, error)
	Finish(ctx context.Context, id string) (*participation.Participation, error)
	ClickStartLink(ctx context.Context, id string) error
	ClickEndLink(ctx context.Context, id string) error
	MoveEmail(ctx context.Context, participationID, emailID, folderID string) (*participation.ParticipationEmail, error)
}

// EventService defines event operations needed by RPC.
type EventService interface {
	Track(ctx context.Context, participationID, participationEmailID string, p event.Payload) (*event.Event, error)
}

// StudyService defines study operations needed by RPC.
type StudyService interface {
	Create(ctx context.Context, req study.CreateRequest) (*study.Study, error)
	Get(ctx context.Context, id string) (*study.Study, error)
	List(ctx context.Context) ([]study.StudySummary, error)
	Update(ctx context.Context, req study.UpdateRequest) (*study.Study, error)
	Delete(ctx context.Context, id string) error
}

// EmailService defines email operations needed by RPC.
type EmailService interface {
	Create(ctx context.Context, in email.Input) (*email.Email, error)
	Get(ctx context.Context, id string) (*email.Email, error)
	List(ctx context.Context) ([]email.Email, error)
	Update(ctx context.Context, id string, in email.Input) (*email.Email, error)
	Delete(ctx context.Context, id string) error
}

// UserService defines user operations needed by RPC.
type UserService interface {
	Login(ctx context.Context, email, password string) (*user.LoginResult, error)
	List(ctx context.Context, actorID string) ([]user.User, error)
	Get(ctx context.Context, actorID, id string) (*user.User, error)
	Create(ctx context.Context, actorID string, in user.CreateInput) (*user.User, error)
	Update(ctx context.Context, actorID, id string, in user.UpdateInput) (*user.User, error)
	Delete(ctx context.Context, actorID, id string) error
}

// ReportService defines export operations needed by RPC.
type ReportService interface {
	Study(ctx context.Context, studyID string) (*report.StudyReport, error)
	Participation(ctx context.Context, participationID string) (*report.ParticipationReport, error)
}

// Services contains all domain services reachable over RPC.
type Services struct {
	Participations ParticipationService
	Events         EventService
	Studies        StudyService
	Emails         EmailService
	Users          UserService
	Reports        ReportService
}

type publicMethod func(ctx context.Context, params json.RawMessage) (any, error)

type adminMethod func(ctx context.Context, actor *auth.Principal, params json.RawMessage) (any, error)

// Handler dispatches RPC methods to domain services.
type Handler struct {
	svc    Services
	public map[string]publicMethod
	admin  map[string]adminMethod
	logger *slog.Logger
}

var validate = validator.New()

// NewHandler creates a new RPC handler.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{svc: svc, logger: logger}

	h.public = map[string]publicMethod{
		"participation.create":         h.participationCreate,
		"participation.resolveByCode":  h.participationResolve,
		"participation.get":            h.participationGet,
		"participation.giveConsent":    h.participationConsent,
		"participation.start":          h.participationStart,
		"participation.moveEmail":      h.participationMoveEmail,
		"participation.finish":         h.participationFinish,
		"participation.clickStartLink": h.participationClickStartLink,
		"participation.clickEndLink":   h.participationClickEndLink,
		"participationEvent.track":     h.eventTrack,
		"auth.login":                   h.authLogin,
	}
	h.admin = map[string]adminMethod{
		"study.getAll":                h.studyList,
		"study.get":                   h.studyGet,
		"study.add":                   h.studyAdd,
		"study.update":                h.studyUpdate,
		"study.delete":                h.studyDelete,
		"study.provision":             h.studyProvision,
		"participation.getAllInStudy": h.participationListInStudy,
		"email.getAll":                h.emailList,
		"email.get":                   h.emailGet,
		"email.add":                   h.emailAdd,
		"email.update":                h.emailUpdate,
		"email.delete":                h.emailDelete,
		"user.getAll":                 h.userList,
		"user.get":                    h.userGet,
		"user.add":                    h.userAdd,
		"user.update":                 h.userUpdate,
		"user.delete":                 h.userDelete,
		"report.study":                h.reportStudy,
		"report.participation":        h.reportParticipation,
	}
	return h
}

// Handle dispatches one RPC call. Admin methods require an authenticated
// principal in ctx. Domain errors come back as *APIError.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	var (
		result any
		err    error
	)
	if fn, ok := h.public[method]; ok {
		result, err = fn(ctx, params)
	} else if fn, ok := h.admin[method]; ok {
		actor, authed := auth.PrincipalFromContext(ctx)
		if !authed {
			return nil, MapError(ErrUnauthorized)
		}
		result, err = fn(ctx, actor, params)
	} else {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}

	if err != nil {
		h.logger.Debug("rpc call failed", "method", method, "error", err)
		return nil, mapError(err)
	}
	return result, nil
}

func decodeParams[T any](params json.RawMessage) (T, error) {
	var out T
	if len(params) > 0 {
		if err := json.Unmarshal(params, &out); err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	if err := validate.Struct(out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return out, nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

var okResult = OK{OK: true}

// Participant methods

func (h *Handler) participationCreate(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[CodeParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.Create(ctx, req.Code)
}

func (h *Handler) participationResolve(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[CodeParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.ResolveByCode(ctx, req.Code)
}

func (h *Handler) participationGet(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[CodeParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.Get(ctx, req.Code)
}

func (h *Handler) participationConsent(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.GiveConsent(ctx, req.ID)
}

func (h *Handler) participationStart(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.Start(ctx, req.ID)
}

func (h *Handler) participationMoveEmail(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[MoveEmailParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.MoveEmail(ctx, req.ID, req.EmailID, req.FolderID)
}

func (h *Handler) participationFinish(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.Finish(ctx, req.ID)
}

func (h *Handler) participationClickStartLink(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Participations.ClickStartLink(ctx, req.ID); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) participationClickEndLink(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Participations.ClickEndLink(ctx, req.ID); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) eventTrack(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[TrackParams](params)
	if err != nil {
		return nil, err
	}
	payload, err := event.Unmarshal(req.Event)
	if err != nil {
		return nil, err
	}
	return h.svc.Events.Track(ctx, req.ParticipationID, req.ParticipationEmailID, payload)
}

func (h *Handler) authLogin(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := decodeParams[LoginParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Users.Login(ctx, req.Email, req.Password)
}

// Admin methods

func (h *Handler) studyList(ctx context.Context, _ *auth.Principal, _ json.RawMessage) (any, error) {
	return h.svc.Studies.List(ctx)
}

func (h *Handler) studyGet(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Studies.Get(ctx, req.ID)
}

func (h *Handler) studyAdd(ctx context.Context, actor *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[StudyParams](params)
	if err != nil {
		return nil, err
	}
	st, err := h.svc.Studies.Create(ctx, study.CreateRequest{
		Settings: req.settings(),
		Folders:  req.folders(),
		Emails:   req.emails(),
	})
	if err != nil {
		return nil, err
	}
	h.logger.Info("study added", "study_id", st.ID, "actor_id", actor.UserID)
	return st, nil
}

func (h *Handler) studyUpdate(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[UpdateStudyParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Studies.Update(ctx, study.UpdateRequest{
		ID:       req.ID,
		Settings: req.settings(),
		Folders:  req.folders(),
		Emails:   req.emails(),
	})
}

func (h *Handler) studyDelete(ctx context.Context, actor *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Studies.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	h.logger.Info("study deleted", "study_id", req.ID, "actor_id", actor.UserID)
	return okResult, nil
}

func (h *Handler) studyProvision(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[ProvisionParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.Provision(ctx, req.StudyID, req.Count)
}

func (h *Handler) participationListInStudy(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[StudyIDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Participations.ListInStudy(ctx, req.StudyID)
}

func (h *Handler) emailList(ctx context.Context, _ *auth.Principal, _ json.RawMessage) (any, error) {
	return h.svc.Emails.List(ctx)
}

func (h *Handler) emailGet(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Emails.Get(ctx, req.ID)
}

func (h *Handler) emailAdd(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[EmailParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Emails.Create(ctx, req.input())
}

func (h *Handler) emailUpdate(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[UpdateEmailParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Emails.Update(ctx, req.ID, req.input())
}

func (h *Handler) emailDelete(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Emails.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) userList(ctx context.Context, actor *auth.Principal, _ json.RawMessage) (any, error) {
	return h.svc.Users.List(ctx, actor.UserID)
}

func (h *Handler) userGet(ctx context.Context, actor *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Users.Get(ctx, actor.UserID, req.ID)
}

func (h *Handler) userAdd(ctx context.Context, actor *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[UserParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Users.Create(ctx, actor.UserID, user.CreateInput{
		Email:          req.Email,
		Password:       req.Password,
		CanManageUsers: req.CanManageUsers,
	})
}

func (h *Handler) userUpdate(ctx context.Context, actor *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[UpdateUserParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Users.Update(ctx, actor.UserID, req.ID, user.UpdateInput{
		Email:          req.Email,
		Password:       req.Password,
		CanManageUsers: req.CanManageUsers,
	})
}

func (h *Handler) userDelete(ctx context.Context, actor *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[IDParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Users.Delete(ctx, actor.UserID, req.ID); err != nil {
		return nil, err
	}
	return okResult, nil
}

func (h *Handler) reportStudy(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[StudyIDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Reports.Study(ctx, req.StudyID)
}

func (h *Handler) reportParticipation(ctx context.Context, _ *auth.Principal, params json.RawMessage) (any, error) {
	req, err := decodeParams[ParticipationIDParams](params)
	if err != nil {
		return nil, err
	}
	return h.svc.Reports.Participation(ctx, req.ParticipationID)
}
