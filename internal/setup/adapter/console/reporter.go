package console

import (
	"fmt"
	"io"
	"strings"

	"firestore-setup/internal/setup/domain/model"
	"firestore-setup/internal/shared/errors"
	"firestore-setup/internal/shared/firestore"
)

// Reporter prints run progress for an operator. Progress and the summary go
// to out, failures to errOut.
type Reporter struct {
	out    io.Writer
	errOut io.Writer
}

// NewReporter creates a Reporter.
func NewReporter(out, errOut io.Writer) *Reporter {
	return &Reporter{out: out, errOut: errOut}
}

// Started prints the banner.
func (r *Reporter) Started(projectID, target string) error {
	p := newPrinter(r.out)
	p.line("🔥 Setting up Firebase Database...")
	p.line()
	p.line("Project ID:", projectID)
	p.line("Target:", target)
	p.line()
	p.line("📊 Creating collections structure...")
	return p.err
}

// CollectionCreated prints one progress line.
func (r *Reporter) CollectionCreated(c model.Collection) error {
	p := newPrinter(r.out)
	p.linef("✅ %s collection created", capitalize(c.Name))
	return p.err
}

// Succeeded prints the summary and the follow-up checklist.
func (r *Reporter) Succeeded(projectID string, created []model.Collection) error {
	p := newPrinter(r.out)
	p.line()
	p.line("🎉 Database setup complete!")
	p.line()
	p.line("📋 Collections created:")
	for _, c := range created {
		p.linef("   - %s (%s)", c.Name, c.Description)
	}
	p.line()
	p.line("⚠️  Remember to:")
	p.line("   1. Update your Firestore security rules in Firebase Console")
	p.line("   2. Update your Storage security rules in Firebase Console")
	p.line("   3. Enable Authentication methods in Firebase Console")
	p.line("      - Go to:", firestore.ConsoleURL(projectID, "authentication", "providers"))
	p.line()
	p.line("✨ You can now start using your Firebase database!")
	return p.err
}

// SetupFailed prints a failed write, with credential guidance when access
// was denied.
func (r *Reporter) SetupFailed(err error) error {
	p := newPrinter(r.errOut)
	p.line()
	p.line("❌ Error setting up database:")
	p.line("Error message:", message(err))
	p.line("Error code:", code(err))

	if errors.IsPermissionDenied(err) {
		p.line()
		p.line("⚠️  PERMISSION DENIED ERROR")
		p.line("This usually means:")
		p.line("1. You need to set up a Firebase service account")
		p.line("2. Or run this from an authenticated environment")
		p.line()
		p.line("To fix this:")
		p.line("1. Go to Firebase Console > Project Settings > Service Accounts")
		p.line(`2. Click "Generate New Private Key"`)
		p.line(`3. Save the JSON file, e.g. as "serviceAccountKey.json" next to your .env`)
		p.line("4. Set FIREBASE_SERVICE_ACCOUNT_KEY=serviceAccountKey.json or pass --credentials serviceAccountKey.json")
	}
	return p.err
}

// Fatal prints an error that ended the run outside the write sequence.
func (r *Reporter) Fatal(err error) error {
	p := newPrinter(r.errOut)
	p.line()
	p.line("Fatal error:")
	p.line("Message:", message(err))
	p.line("Code:", code(err))
	return p.err
}

func message(err error) string {
	if err == nil {
		return "<nil>"
	}
	return errors.Message(err)
}

// code renders the numeric status with its symbolic name, e.g.
// "7 (PERMISSION_DENIED)".
func code(err error) string {
	appErr := errors.Classify(err)
	if appErr == nil {
		return "0"
	}
	name := appErr.Code
	if name == "" {
		name = appErr.Status.String()
	}
	return fmt.Sprintf("%d (%s)", uint32(errors.StatusCode(err)), name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// printer keeps the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) line(a ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, a...)
}

func (p *printer) linef(format string, a ...interface{}) {
	p.line(fmt.Sprintf(format, a...))
}
