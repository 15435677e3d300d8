// Package page models a captured page of dismissible alert banners.
// The model is a one-shot snapshot: it reflects the page as rendered,
// and the sweeper mutates it by activating dismiss controls.
package page
