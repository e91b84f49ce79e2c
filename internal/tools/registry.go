package tools

import (
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/vitormoschetta/go-agent-gateway/internal/model"
)

// Nomes das ferramentas registradas
const (
	CalculatorName  = "calculator"
	CurrentTimeName = "current_time"
	SendSMSName     = "send_sms"
)

var descriptors = []model.ToolDescriptor{
	{
		Name:        CalculatorName,
		Description: "Perform mathematical calculations and evaluate expressions",
	},
	{
		Name:        CurrentTimeName,
		Description: "Get the current date and time",
	},
	{
		Name:        SendSMSName,
		Description: "Send SMS messages via Twilio",
	},
}

// Registry constrói as ferramentas do agente
type Registry struct {
	sender Sender
	now    func() time.Time
}

// NewRegistry cria um Registry. Um sender nil usa LogSender.
func NewRegistry(sender Sender) *Registry {
	if sender == nil {
		sender = LogSender{}
	}
	return &Registry{
		sender: sender,
		now:    time.Now,
	}
}

// Descriptors retorna os metadados estáticos das ferramentas, na ordem de registro
func (r *Registry) Descriptors() []model.ToolDescriptor {
	out := make([]model.ToolDescriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Tools cria as ferramentas ADK correspondentes aos descritores
func (r *Registry) Tools() ([]tool.Tool, error) {
	calculator, err := functiontool.New(functiontool.Config{
		Name:        CalculatorName,
		Description: descriptors[0].Description,
	}, r.calculator)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create tool %s", CalculatorName)
	}

	currentTime, err := functiontool.New(functiontool.Config{
		Name:        CurrentTimeName,
		Description: descriptors[1].Description,
	}, r.currentTime)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create tool %s", CurrentTimeName)
	}

	sendSMS, err := functiontool.New(functiontool.Config{
		Name:        SendSMSName,
		Description: descriptors[2].Description,
	}, r.sendSMS)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create tool %s", SendSMSName)
	}

	return []tool.Tool{calculator, currentTime, sendSMS}, nil
}

func (r *Registry) calculator(_ tool.Context, args CalculatorArgs) (CalculatorResult, error) {
	result, err := Evaluate(args.Expression)
	if err != nil {
		return CalculatorResult{}, err
	}
	return CalculatorResult{Expression: args.Expression, Result: result}, nil
}

func (r *Registry) currentTime(_ tool.Context, args CurrentTimeArgs) (CurrentTimeResult, error) {
	return CurrentTime(r.now(), args.Timezone)
}

func (r *Registry) sendSMS(ctx tool.Context, args SendSMSArgs) (SendSMSResult, error) {
	return SendSMS(ctx, r.sender, args)
}
