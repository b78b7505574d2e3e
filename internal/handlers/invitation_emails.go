package handlers

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/orghub-io/orghub/internal/email"
	"github.com/orghub-io/orghub/internal/models"
)

//go:embed templates/invitation.html
var invitationHtml string
var invitationHtmlTemplate *htmltemplate.Template

//go:embed templates/invitation.txt
var invitationText string
var invitationTextTemplate *texttemplate.Template

func init() {
	var err error
	invitationHtmlTemplate, err = htmltemplate.New("templates/invitation.html").Parse(invitationHtml)
	if err != nil {
		panic(err)
	}
	invitationTextTemplate, err = texttemplate.New("templates/invitation.txt").Parse(invitationText)
	if err != nil {
		panic(err)
	}
}

// sendInvitationEmail mails the invitation link to the invited address.
// Sending is skipped when the email-invitations feature flag is off or
// no sender is configured.
func (api *API) sendInvitationEmail(ctx context.Context, invitation *models.Invitation) error {
	enabled, err := api.fflags.GetFlag("email-invitations")
	if err != nil {
		return err
	}
	if !enabled || api.emailSender == nil {
		api.Logger(ctx).Debugw("invitation email sending disabled, skipping",
			"invitation", invitation.ID)
		return nil
	}

	message, err := api.composeInvitationEmail(ctx, invitation)
	if err != nil {
		return err
	}
	return api.emailSender.Send(message)
}

func (api *API) composeInvitationEmail(ctx context.Context, invitation *models.Invitation) (email.Message, error) {
	var org models.Organization
	if res := api.db.WithContext(ctx).First(&org, "id = ?", invitation.OrganizationID); res.Error != nil {
		return email.Message{}, res.Error
	}

	fromName := "An administrator"
	var inviter models.User
	if res := api.db.WithContext(ctx).First(&inviter, "id = ?", invitation.InvitedBy); res.Error == nil && inviter.FullName != "" {
		fromName = inviter.FullName
	}

	query := url.Values{}
	query.Set("token", invitation.InviteToken)
	query.Set("email", invitation.Email)

	variables := struct {
		OrganizationName string
		FromUserName     string
		From             string
		Subject          string
		InvitationURL    string
		ExpiresIn        string
	}{
		InvitationURL: fmt.Sprintf("%s/invitations/accept?%s", api.URL, query.Encode()),
		OrganizationName: org.Name,
		Subject:          fmt.Sprintf("%s invited you to join %s", fromName, org.Name),
		From:             fmt.Sprintf("%s <%s>", fromName, api.SmtpFrom),
		FromUserName:     fromName,
	}

	if !invitation.ExpiresAt.IsZero() {
		// Nudge past the boundary so the wording reads "6 days from
		// now" rather than "5 days from now" right after creation.
		variables.ExpiresIn = humanize.Time(invitation.ExpiresAt.Add(30 * time.Second))
	}

	html := bytes.NewBuffer(nil)
	if err := invitationHtmlTemplate.Execute(html, variables); err != nil {
		return email.Message{}, err
	}

	text := bytes.NewBuffer(nil)
	if err := invitationTextTemplate.Execute(text, variables); err != nil {
		return email.Message{}, err
	}

	return email.Message{
		From:         api.SmtpFrom,
		To:           []string{invitation.Email},
		Subject:      variables.Subject,
		PlainMessage: text.String(),
		HtmlMessage:  html.String(),
	}, nil
}

// sendRevocationEmail tells an invited user that their invitation was
// withdrawn. Only called when the invited email belongs to an account.
func (api *API) sendRevocationEmail(ctx context.Context, invitation *models.Invitation) error {
	enabled, err := api.fflags.GetFlag("email-invitations")
	if err != nil {
		return err
	}
	if !enabled || api.emailSender == nil {
		return nil
	}

	var org models.Organization
	if res := api.db.WithContext(ctx).First(&org, "id = ?", invitation.OrganizationID); res.Error != nil {
		return res.Error
	}

	subject := fmt.Sprintf("Your invitation to %s was revoked", org.Name)
	body := fmt.Sprintf("Your invitation to join %s has been revoked by an administrator.\r\nNo action is needed on your part.\r\n", org.Name)
	return api.emailSender.Send(email.Message{
		From:         api.SmtpFrom,
		To:           []string{invitation.Email},
		Subject:      subject,
		PlainMessage: body,
	})
}
