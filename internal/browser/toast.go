package browser

import (
	"context"

	"github.com/go-rod/rod"
)

// ToastDuration is how long the in-page notification stays up, in ms.
const ToastDuration = 3000

const toastJS = `(message, ms) => {
	const el = document.createElement('div');
	el.textContent = message;
	el.setAttribute('data-nutrifill', 'toast');
	el.style.cssText = [
		'position: fixed', 'top: 80px', 'right: 20px',
		'background: #44d07b', 'color: #262a3b',
		'padding: 12px 20px', 'border-radius: 8px', 'font-weight: bold',
		'box-shadow: 0 4px 12px rgba(0, 0, 0, 0.15)', 'z-index: 10000',
		'transition: opacity 0.3s ease-out',
	].join(';');
	document.body.appendChild(el);
	setTimeout(() => {
		el.style.opacity = '0';
		setTimeout(() => el.remove(), 300);
	}, ms);
}`

const keyNavJS = `() => {
	if (window.__nutrifillKeyNav) return false;
	window.__nutrifillKeyNav = true;
	document.addEventListener('keydown', (e) => {
		if (!e.isTrusted || e.key !== 'Enter') return;
		const t = e.target;
		if (!t || !t.matches || !t.matches('input.number-box')) return;
		const inputs = Array.from(document.querySelectorAll('input.number-box'));
		const next = inputs[inputs.indexOf(t) + 1];
		if (next) {
			e.preventDefault();
			next.focus();
			next.select();
		}
	}, true);
	return true;
}`

// ShowToast renders message as a transient notification on page.
func ShowToast(ctx context.Context, page *rod.Page, message string) error {
	_, err := page.Context(ctx).Eval(toastJS, message, ToastDuration)
	return err
}

// InstallKeyboardNav makes Enter in a number box jump to the next one. It is
// a no-op when the current document already has the handler.
func InstallKeyboardNav(ctx context.Context, page *rod.Page) error {
	_, err := page.Context(ctx).Eval(keyNavJS)
	return err
}
