package emailsvc

import (
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/trezcool/darasa/core"
)

var (
	// SentMessages collects everything sent through the console service so
	// tests can assert on outgoing mail.
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	disableOutput    bool
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService writes outgoing mail to stdout; the default for
// development and tests.
func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		disableOutput:    conf.TestMode,
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}
	svc.send(*msg)
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

func (svc consoleService) send(msg core.EmailMessage) {
	if svc.disableOutput {
		return
	}
	body := new(strings.Builder)
	fmt.Fprintf(body, "From: %s\n", svc.defaultFromEmail.String())
	fmt.Fprintf(body, "To: %s\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(body, "Cc: %s\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(body, "Bcc: %s\n", joinAddresses(msg.Bcc))
	}
	fmt.Fprintf(body, "Subject: %s\n\n%s\n", svc.subjPrefix+msg.Subject, msg.BodyStr)
	fmt.Println(body.String())
	fmt.Println(strings.Repeat("-", 79))
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}
