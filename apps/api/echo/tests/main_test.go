package tests

import (
	"log"
	"net/http/httptest"
	"net/mail"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	en_locale "github.com/go-playground/locales/en"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/account"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
	"github.com/trezcool/darasa/services/academia"
	emailsvc "github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/storage/sessionstore"
)

var (
	conf     *core.Config
	app      echoapi.Server
	upstream *httptest.Server

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type stdLogger struct {
	std *log.Logger
}

func (l stdLogger) Enable(bool)                          {}
func (l stdLogger) Debug(msg string, _ ...interface{})   { l.std.Println(msg) }
func (l stdLogger) Info(msg string, _ ...interface{})    { l.std.Println(msg) }
func (l stdLogger) Warn(msg string, _ ...interface{})    { l.std.Println(msg) }
func (l stdLogger) Error(msg string, args ...interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}
func (l stdLogger) Fatal(msg string, _ ...interface{}) { l.std.Fatal(msg) }

func TestMain(m *testing.M) {
	upstream = httptest.NewServer(upstreamStub())

	conf = &core.Config{
		Debug:            false,
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Darasa",
		SecretKey:        "test-secret",
		DefaultFromEmail: mail.Address{Address: "noreply@test.test"},
		Academia:         core.AcademiaConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second},
		Session: core.SessionConfig{
			TTL:             time.Hour,
			HistoryMaxAge:   30 * 24 * time.Hour,
			QuizHeadroom:    2,
			MinQuizPageSize: 50,
		},
	}

	logger := stdLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}

	validate := validator.New()
	en := en_locale.New()
	uni := ut.New(en, en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	client := academia.NewClient(conf.Academia, logger)
	catalogSvc := catalog.NewService(client)
	store := sessionstore.NewInMemStore(conf.Session.TTL)
	studySvc := study.NewService(
		catalogSvc,
		store,
		inmem.NewHistoryRepository(),
		inmem.NewBookmarkRepository(),
		client,
		logger,
		conf.Session,
	)
	accountSvc := account.NewService(client, emailsvc.NewConsoleService(conf), conf.AppName, conf.FrontendBaseURL)

	app = echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		CatalogSvc:     catalogSvc,
		StudySvc:       studySvc,
		AccountSvc:     accountSvc,
		ExcelSvc:       client,
		Validate:       validate,
		Translator:     translator,
	})

	code := m.Run()

	store.Close()
	upstream.Close()
	os.Exit(code)
}
