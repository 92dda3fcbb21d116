package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/pages"
	"github.com/leadflow/leadflow/internal/validation"
)

// Attachments are at most 10 MB; the rest of the form is small.
const maxProposalForm = 11 << 20

type ProposalHandler struct {
	leadService     *service.LeadService
	proposalService *service.ProposalService
}

func NewProposalHandler(leadService *service.LeadService, proposalService *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{
		leadService:     leadService,
		proposalService: proposalService,
	}
}

func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	leadID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	input, closeFile, err := h.proposalInput(r)
	if err != nil {
		toastError(w, r, "Erro ao criar proposta", err.Error())
		return
	}
	defer closeFile()

	proposal, err := h.proposalService.Create(r.Context(), user.ID, leadID, input)
	if err != nil && proposal == nil {
		logFailure(r, "failed to create proposal", err, "user_id", user.ID, "lead_id", leadID)
		toastError(w, r, "Erro ao criar proposta", userMessage(err))
		return
	}
	if err != nil {
		logFailure(r, "failed to attach proposal file", err, "user_id", user.ID, "proposal_id", proposal.ID)
		w.Header().Set("HX-Trigger", "leadflow:changed")
		toastError(w, r, "Proposta criada sem o anexo", userMessage(err))
		return
	}

	refreshed(w, r, "Proposta criada")
}

func (h *ProposalHandler) Show(w http.ResponseWriter, r *http.Request) {
	lead, proposal, ok := h.proposal(w, r)
	if !ok {
		return
	}
	ui.Render(w, r, pages.ProposalItem(lead, proposal))
}

func (h *ProposalHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	_, proposal, ok := h.proposal(w, r)
	if !ok {
		return
	}
	ui.Render(w, r, pages.ProposalEditForm(proposal, h.proposalService.AttachmentsEnabled(), ""))
}

func (h *ProposalHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	proposalID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	attachments := h.proposalService.AttachmentsEnabled()

	input, closeFile, err := h.proposalInput(r)
	if err != nil {
		draft := &model.Proposal{ID: proposalID, Service: r.FormValue("service"), Details: r.FormValue("details")}
		ui.Render(w, r, pages.ProposalEditForm(draft, attachments, err.Error()))
		return
	}
	defer closeFile()

	proposal, err := h.proposalService.Update(r.Context(), user.ID, proposalID, input)
	if err != nil && proposal == nil {
		logFailure(r, "failed to update proposal", err, "user_id", user.ID, "proposal_id", proposalID)
		draft := &model.Proposal{ID: proposalID, Service: input.Service, Details: input.Details}
		ui.Render(w, r, pages.ProposalEditForm(draft, attachments, userMessage(err)))
		return
	}
	if err != nil {
		logFailure(r, "failed to attach proposal file", err, "user_id", user.ID, "proposal_id", proposalID)
		toastError(w, r, "Proposta salva sem o anexo", userMessage(err))
	} else {
		toastSuccess(w, r, "Proposta atualizada")
	}

	lead, err := h.leadService.Lead(r.Context(), user.ID, proposal.LeadID)
	if err != nil {
		logFailure(r, "failed to load lead", err, "user_id", user.ID, "lead_id", proposal.LeadID)
		w.Header().Set("HX-Trigger", "leadflow:changed")
		return
	}
	ui.Render(w, r, pages.ProposalItem(lead, proposal))
}

func (h *ProposalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	proposalID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	_, err := h.proposalService.Delete(r.Context(), user.ID, proposalID)
	if err != nil {
		logFailure(r, "failed to delete proposal", err, "user_id", user.ID, "proposal_id", proposalID)
		toastError(w, r, "Erro ao excluir proposta", userMessage(err))
		return
	}

	refreshed(w, r, "Proposta excluída")
}

// Attachment redirects to a freshly signed link, so links in old pages keep working.
func (h *ProposalHandler) Attachment(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	proposalID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	proposal, err := h.proposalService.Proposal(r.Context(), user.ID, proposalID)
	if err != nil || proposal.AttachmentURL == "" {
		if err != nil {
			logFailure(r, "failed to load proposal", err, "user_id", user.ID, "proposal_id", proposalID)
		}
		notFound(w, r)
		return
	}

	http.Redirect(w, r, proposal.AttachmentURL, http.StatusSeeOther)
}

// proposalInput reads the multipart form. The returned func closes the
// attachment, if any, once the service is done with it.
func (h *ProposalHandler) proposalInput(r *http.Request) (service.ProposalInput, func(), error) {
	noop := func() {}

	err := r.ParseMultipartForm(maxProposalForm)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return service.ProposalInput{}, noop, errors.New("não foi possível ler o formulário")
	}

	input := service.ProposalInput{
		Service: r.FormValue("service"),
		Details: r.FormValue("details"),
	}

	file, header, err := r.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return input, noop, nil
	}
	if err != nil {
		return input, noop, errors.New("não foi possível ler o anexo")
	}
	closeFile := func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}

	if header.Filename == "" || header.Size == 0 {
		closeFile()
		return input, noop, nil
	}

	if !h.proposalService.AttachmentsEnabled() {
		closeFile()
		return input, noop, service.ErrAttachmentsDisabled
	}

	err = validation.ValidateFile(header, validation.DocumentConstraints)
	if err != nil {
		closeFile()
		return input, noop, err
	}

	input.Attachment = upload(file, header)
	return input, closeFile, nil
}

func upload(file multipart.File, header *multipart.FileHeader) *service.Upload {
	return &service.Upload{
		Name:        header.Filename,
		ContentType: "application/pdf",
		Size:        header.Size,
		Body:        file,
	}
}

func (h *ProposalHandler) proposal(w http.ResponseWriter, r *http.Request) (*model.Lead, *model.Proposal, bool) {
	user := ctxkeys.User(r.Context())

	proposalID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return nil, nil, false
	}

	proposal, err := h.proposalService.Proposal(r.Context(), user.ID, proposalID)
	if err == nil {
		var lead *model.Lead
		lead, err = h.leadService.Lead(r.Context(), user.ID, proposal.LeadID)
		if err == nil {
			return lead, proposal, true
		}
	}

	logFailure(r, "failed to load proposal", err, "user_id", user.ID, "proposal_id", proposalID)
	w.Header().Set("HX-Reswap", "none")
	toastError(w, r, "Erro", userMessage(err))
	return nil, nil, false
}
