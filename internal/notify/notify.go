package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/billmal071/d5s/internal/config"
)

// Notification types
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

const appName = "d5s"

// Send sends a desktop notification if enabled in config
func Send(title, message, notifyType string) {
	if !config.Get().Downloads.Notifications {
		return
	}

	// Send notification in background
	go sendNotification(title, message, notifyType)
}

// BookComplete announces a finished book
func BookComplete(title, dir string) {
	Send("Book downloaded", title+"\n"+dir, TypeSuccess)
}

// BookFailed announces a failed book
func BookFailed(title, reason string) {
	msg := title
	if reason != "" {
		msg += ": " + reason
	}
	Send("Book download failed", msg, TypeError)
}

// BatchComplete summarises a multi-book get
func BatchComplete(completed, failed int) {
	msg := fmt.Sprintf("%d book(s) downloaded", completed)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	Send("Downloads finished", msg, TypeInfo)
}

func sendNotification(title, message, notifyType string) {
	switch runtime.GOOS {
	case "linux":
		sendLinuxNotification(title, message, notifyType)
	case "darwin":
		sendMacNotification(title, message)
	case "windows":
		sendWindowsNotification(title, message)
	}
}

func sendLinuxNotification(title, message, notifyType string) {
	icon := "dialog-information"
	switch notifyType {
	case TypeSuccess:
		icon = "dialog-ok"
	case TypeError:
		icon = "dialog-error"
	}

	exec.Command("notify-send", "-i", icon, "-a", appName, title, message).Run()
}

func sendMacNotification(title, message string) {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
	exec.Command("osascript", "-e", script).Run()
}

func sendWindowsNotification(title, message string) {
	script := `
	[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
	[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
	$template = '<toast><visual><binding template="ToastText02"><text id="1">` + escapeXML(title) + `</text><text id="2">` + escapeXML(message) + `</text></binding></visual></toast>'
	$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
	$xml.LoadXml($template)
	$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
	[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("` + appName + `").Show($toast)
	`
	exec.Command("powershell", "-Command", script).Run()
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeAppleScript(s string) string {
	return appleScriptEscaper.Replace(s)
}

var xmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
