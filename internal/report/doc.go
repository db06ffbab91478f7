// Package report renders a classification tally, either as a text bar chart
// for the terminal or as an HTML pie chart.
package report
