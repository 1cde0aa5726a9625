package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-autoreply/internal/common/config"
	"mail-autoreply/internal/common/errors"
	"mail-autoreply/internal/common/logger"
	"mail-autoreply/internal/mailer"
	"mail-autoreply/internal/models"
	"mail-autoreply/internal/sheets"
)

// fakeSheets is an in-memory sheets.Service. Cell updates are recorded, not
// applied, so assertions see exactly what the pipeline wrote.
type fakeSheets struct {
	data      map[string]map[string][][]string // spreadsheet ID -> sheet name -> rows
	updates   []cellUpdate
	updateErr error
}

type cellUpdate struct {
	spreadsheetID string
	sheetName     string
	row, col      int
	value         string
}

func (f *fakeSheets) Open(_ context.Context, spreadsheetID string) (*sheets.Handle, error) {
	if _, ok := f.data[spreadsheetID]; !ok {
		return nil, fmt.Errorf("spreadsheet %s not found", spreadsheetID)
	}
	return &sheets.Handle{SpreadsheetID: spreadsheetID, Title: "fake " + spreadsheetID}, nil
}

func (f *fakeSheets) ReadAll(_ context.Context, h *sheets.Handle, sheetName string) ([][]string, error) {
	rows, ok := f.data[h.SpreadsheetID][sheetName]
	if !ok {
		return nil, fmt.Errorf("sheet %s not found in %s", sheetName, h.SpreadsheetID)
	}
	return rows, nil
}

func (f *fakeSheets) UpdateCell(_ context.Context, h *sheets.Handle, sheetName string, row, col int, value string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, cellUpdate{h.SpreadsheetID, sheetName, row, col, value})
	return nil
}

// fakeTransport records sent messages and fails each recipient listed in
// failWith.
type fakeTransport struct {
	sent     []mailer.Message
	failWith map[string]error
	attempts map[string]int
}

func (f *fakeTransport) Send(_ context.Context, msg mailer.Message) error {
	if f.attempts == nil {
		f.attempts = map[string]int{}
	}
	f.attempts[msg.To]++
	if err, ok := f.failWith[msg.To]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var fixedNow = time.Date(2024, 6, 12, 10, 30, 0, 0, time.FixedZone("JST", 9*60*60))

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Sheets.ConfigSpreadsheetID = "config-id"
	cfg.Sheets.AccountSheetName = "ユーザ"
	cfg.Sheets.ApplicantSheetName = "応募者シート"
	cfg.Sheets.TemplateSheetName = "メール管理"
	cfg.Sheets.MaxRetries = 2
	cfg.Sheets.RetryInterval = time.Millisecond
	cfg.SMTP.MaxRetries = 2
	cfg.SMTP.RetryInterval = time.Millisecond
	cfg.SMTP.DefaultHost = "smtp.muumuu-mail.com"
	cfg.SMTP.DefaultPort = 587
	cfg.Pipeline.SearchDays = 1
	cfg.Pipeline.SendInterval = 0
	return cfg
}

func registryRows() [][]string {
	return [][]string{
		{"クライアント名", "メール送信", "メール", "パス", "パス2", "メール文面", "IMAP", "差出人名"},
		{"Acme", "TRUE", "acme@example.com", "secret", "", "client-id", "", "採用担当"},
	}
}

func clientSheets(applicantRows, templateRows [][]string) map[string]map[string][][]string {
	return map[string]map[string][][]string{
		"config-id": {"ユーザ": registryRows()},
		"client-id": {
			"応募者シート": applicantRows,
			"メール管理":  templateRows,
		},
	}
}

func defaultTemplateRows() [][]string {
	return [][]string{
		{"クライアント名", "件名", "34歳以下", "35歳以上"},
		{"Acme", "", `$name様\nご応募ありがとうございます。`, `$name様\n経験を活かせるお仕事です。`},
	}
}

func newTestPipeline(svc *fakeSheets, transport *fakeTransport, t *testing.T, opts ...Option) *Pipeline {
	factory := func(models.Account) mailer.Transport { return transport }
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return New(testConfig(), svc, factory, logger.NewTestLogger(t), opts...)
}

func TestRun_SendsAndMarksRows(t *testing.T) {
	applicantRows := [][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "tanaka@example.com", "Acme", "営業スタッフ"},
		{"", "2024/06/12 09:30:00", "佐藤 花子", "40", "sato@example.com", "Acme", "事務スタッフ"},
	}
	svc := &fakeSheets{data: clientSheets(applicantRows, defaultTemplateRows())}
	transport := &fakeTransport{}

	result, err := newTestPipeline(svc, transport, t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{Sent: 2}, result)

	require.Len(t, transport.sent, 2)
	first := transport.sent[0]
	assert.Equal(t, "acme@example.com", first.From)
	assert.Equal(t, "採用担当", first.FromName)
	assert.Equal(t, "tanaka@example.com", first.To)
	assert.Equal(t, "ご応募ありがとうございます【営業スタッフ】", first.Subject)
	assert.Equal(t, "田中 太郎様\nご応募ありがとうございます。", first.Body)

	second := transport.sent[1]
	assert.Equal(t, "佐藤 花子様\n経験を活かせるお仕事です。", second.Body, "age 40 gets the over-35 body")

	require.Len(t, svc.updates, 2)
	assert.Equal(t, cellUpdate{"client-id", "応募者シート", 2, 1, "2024/06/12 10:30:00"}, svc.updates[0])
	assert.Equal(t, cellUpdate{"client-id", "応募者シート", 3, 1, "2024/06/12 10:30:00"}, svc.updates[1])
}

func TestRun_OnlyOver35TemplateStillSendsToOlderApplicant(t *testing.T) {
	applicantRows := [][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "佐藤 花子", "40", "sato@example.com", "Acme", "事務"},
	}
	templateRows := [][]string{
		{"クライアント名", "件名", "34歳以下", "35歳以上"},
		{"Acme", "", "", `$name様\nご応募ありがとうございます。`},
	}
	svc := &fakeSheets{data: clientSheets(applicantRows, templateRows)}
	transport := &fakeTransport{}

	result, err := newTestPipeline(svc, transport, t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{Sent: 1}, result)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "佐藤 花子様\nご応募ありがとうございます。", transport.sent[0].Body)
	require.Len(t, svc.updates, 1)
	assert.Equal(t, cellUpdate{"client-id", "応募者シート", 2, 1, "2024/06/12 10:30:00"}, svc.updates[0])
}

func TestRun_MarkFailureCountsAsSentUnmarked(t *testing.T) {
	applicantRows := [][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "tanaka@example.com", "Acme", "営業"},
	}
	svc := &fakeSheets{
		data:      clientSheets(applicantRows, defaultTemplateRows()),
		updateErr: errors.NewSheetsUpdateFailedError(2, 1, assert.AnError),
	}
	transport := &fakeTransport{}

	result, err := newTestPipeline(svc, transport, t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{SentUnmarked: 1}, result)
	assert.Len(t, transport.sent, 1, "the reply itself was delivered exactly once")
}

func TestRun_DryRunDeliversNothing(t *testing.T) {
	applicantRows := [][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "tanaka@example.com", "Acme", "営業"},
	}
	svc := &fakeSheets{data: clientSheets(applicantRows, defaultTemplateRows())}
	transport := &fakeTransport{}

	result, err := newTestPipeline(svc, transport, t, WithDryRun(true)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{Sent: 1}, result, "dry run counts the reply as sent")
	assert.Empty(t, transport.sent)
	assert.Empty(t, svc.updates, "dry run never touches the sent markers")
}

func TestRun_SkipsWithoutTemplate(t *testing.T) {
	applicantRows := [][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "tanaka@example.com", "Unknown Client", "営業"},
		{"", "2024/06/12 09:10:00", "佐藤 花子", "40", "sato@example.com", "NoUpper", "事務"},
	}
	templateRows := [][]string{
		{"クライアント名", "件名", "34歳以下", "35歳以上"},
		{"NoUpper", "", "若年向け本文", ""},
	}
	svc := &fakeSheets{data: clientSheets(applicantRows, templateRows)}
	transport := &fakeTransport{}

	result, err := newTestPipeline(svc, transport, t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{SkippedNoTemplate: 1, SkippedEmptyBody: 1}, result)
	assert.Empty(t, transport.sent)
	assert.Empty(t, svc.updates)
}

func TestRun_RetryableSendFailureIsRetriedThenCounted(t *testing.T) {
	applicantRows := [][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "down@example.com", "Acme", "営業"},
	}
	svc := &fakeSheets{data: clientSheets(applicantRows, defaultTemplateRows())}
	transport := &fakeTransport{
		failWith: map[string]error{
			"down@example.com": errors.NewSendFailedError("down@example.com", assert.AnError),
		},
	}

	result, err := newTestPipeline(svc, transport, t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{Failed: 1}, result)
	assert.Equal(t, 2, transport.attempts["down@example.com"], "transient failures use every attempt")
	assert.Empty(t, svc.updates, "a failed reply must not be marked sent")
}

func TestRun_RecipientRejectionIsNotRetried(t *testing.T) {
	applicantRows := [][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "bad@example.com", "Acme", "営業"},
	}
	svc := &fakeSheets{data: clientSheets(applicantRows, defaultTemplateRows())}
	transport := &fakeTransport{
		failWith: map[string]error{
			"bad@example.com": errors.NewRecipientRejectedError("bad@example.com", assert.AnError),
		},
	}

	result, err := newTestPipeline(svc, transport, t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunResult{Failed: 1}, result)
	assert.Equal(t, 1, transport.attempts["bad@example.com"])
}

func TestRun_AccountFilter(t *testing.T) {
	svc := &fakeSheets{data: clientSheets([][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "tanaka@example.com", "Acme", "営業"},
	}, defaultTemplateRows())}
	transport := &fakeTransport{}

	result, err := newTestPipeline(svc, transport, t, WithAccountFilter("other@example.com")).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total())
	assert.Empty(t, transport.sent)
}

func TestRun_BrokenClientSpreadsheetDoesNotAbortRun(t *testing.T) {
	data := clientSheets([][]string{
		{"メール送信済", "応募日時", "名前", "年齢", "メールアドレス", "クライアント名", "タイトル"},
		{"", "2024/06/12 09:00:00", "田中 太郎", "28", "tanaka@example.com", "Acme", "営業"},
	}, defaultTemplateRows())
	data["config-id"]["ユーザ"] = append(data["config-id"]["ユーザ"],
		[]string{"Broken", "TRUE", "broken@example.com", "secret", "", "missing-id", "", ""})
	svc := &fakeSheets{data: data}
	transport := &fakeTransport{}

	result, err := newTestPipeline(svc, transport, t).Run(context.Background())
	require.NoError(t, err, "a broken account is contained, not fatal")
	assert.Equal(t, models.RunResult{Sent: 1}, result)
}
