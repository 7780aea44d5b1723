package tray

import (
	"fyne.io/fyne/v2"
)

// svgContent is a 16x16 speech bubble holding a code cursor.
const svgContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="1.5" y="2" width="13" height="9" rx="2" fill="#ffffff" stroke="#0078d4" stroke-width="1.2"/>
  <path d="M5 11 L5 14 L8 11" fill="#ffffff" stroke="#0078d4" stroke-width="1.2" stroke-linejoin="round"/>
  <path d="M5.5 5 L4 6.5 L5.5 8" fill="none" stroke="#333333" stroke-width="1" stroke-linecap="round"/>
  <path d="M10.5 5 L12 6.5 L10.5 8" fill="none" stroke="#333333" stroke-width="1" stroke-linecap="round"/>
  <line x1="8.6" y1="4.6" x2="7.4" y2="8.4" stroke="#666666" stroke-width="0.9"/>
</svg>`

// Icon is the tray and window icon.
var Icon fyne.Resource = fyne.NewStaticResource("code-popup.svg", []byte(svgContent))
