package allocation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Threshold is the stock policy of one item type.
type Threshold struct {
	Critical int `json:"critical"`
	Reorder  int `json:"reorder"`
	Max      int `json:"max"`
}

// DefaultThreshold applies to item types that have no entry in the table.
var DefaultThreshold = Threshold{Critical: 10, Reorder: 20, Max: 100}

// ErrInvalidThreshold is wrapped by every validation failure.
var ErrInvalidThreshold = errors.New("invalid safety threshold")

// Validate checks 0 <= critical <= reorder <= max.
func (t Threshold) Validate() error {
	switch {
	case t.Critical < 0:
		return fmt.Errorf("%w: critical %d is negative", ErrInvalidThreshold, t.Critical)
	case t.Critical > t.Reorder:
		return fmt.Errorf("%w: critical %d exceeds reorder %d", ErrInvalidThreshold, t.Critical, t.Reorder)
	case t.Reorder > t.Max:
		return fmt.Errorf("%w: reorder %d exceeds max %d", ErrInvalidThreshold, t.Reorder, t.Max)
	}
	return nil
}

// ThresholdTable maps item type names to their policy.
type ThresholdTable map[string]Threshold

// Lookup returns the entry for name, matching case-insensitively when there is
// no exact entry. The second result reports whether an entry was found.
func (tt ThresholdTable) Lookup(name string) (Threshold, bool) {
	name = strings.TrimSpace(name)
	if t, ok := tt[name]; ok {
		return t, true
	}
	for k, t := range tt {
		if strings.EqualFold(k, name) {
			return t, true
		}
	}
	return DefaultThreshold, false
}

// For is Lookup without the found flag.
func (tt ThresholdTable) For(name string) Threshold {
	t, _ := tt.Lookup(name)
	return t
}

// Validate reports every invalid entry, sorted by item name.
func (tt ThresholdTable) Validate() error {
	names := tt.Names()
	var errs []error
	for _, name := range names {
		if err := tt[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Names returns the item names in sorted order.
func (tt ThresholdTable) Names() []string {
	names := make([]string, 0, len(tt))
	for name := range tt {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new table with overrides applied on top of tt.
func (tt ThresholdTable) Merge(overrides ThresholdTable) ThresholdTable {
	merged := make(ThresholdTable, len(tt)+len(overrides))
	for k, v := range tt {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// DefaultThresholds returns a copy of the built-in table.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{}.Merge(builtinThresholds)
}

// SafeToDistribute is stock above the critical level, floored at 0.
func SafeToDistribute(stock, critical int) int {
	if safe := stock - critical; safe > 0 {
		return safe
	}
	return 0
}

var builtinThresholds = ThresholdTable{
	// Food
	"Rice (10kg)":            {Critical: 20, Reorder: 50, Max: 300},
	"Rice (25kg)":            {Critical: 10, Reorder: 25, Max: 150},
	"Rice (5kg)":             {Critical: 30, Reorder: 60, Max: 400},
	"Canned Sardines":        {Critical: 100, Reorder: 250, Max: 1500},
	"Canned Corned Beef":     {Critical: 80, Reorder: 200, Max: 1200},
	"Canned Tuna":            {Critical: 80, Reorder: 200, Max: 1200},
	"Canned Meat Loaf":       {Critical: 80, Reorder: 200, Max: 1200},
	"Canned Vegetables":      {Critical: 60, Reorder: 150, Max: 900},
	"Instant Noodles":        {Critical: 150, Reorder: 400, Max: 2500},
	"Pasta":                  {Critical: 40, Reorder: 100, Max: 600},
	"Biscuits":               {Critical: 100, Reorder: 250, Max: 1500},
	"Crackers":               {Critical: 100, Reorder: 250, Max: 1500},
	"Bread":                  {Critical: 50, Reorder: 100, Max: 400},
	"Oatmeal":                {Critical: 40, Reorder: 100, Max: 600},
	"Cereal":                 {Critical: 40, Reorder: 100, Max: 600},
	"Coffee (3-in-1)":        {Critical: 100, Reorder: 250, Max: 1500},
	"Sugar (1kg)":            {Critical: 30, Reorder: 80, Max: 400},
	"Salt (1kg)":             {Critical: 20, Reorder: 50, Max: 300},
	"Cooking Oil (1L)":       {Critical: 30, Reorder: 80, Max: 400},
	"Soy Sauce":              {Critical: 20, Reorder: 50, Max: 300},
	"Vinegar":                {Critical: 20, Reorder: 50, Max: 300},
	"Powdered Milk":          {Critical: 40, Reorder: 100, Max: 600},
	"Evaporated Milk":        {Critical: 60, Reorder: 150, Max: 900},
	"Condensed Milk":         {Critical: 40, Reorder: 100, Max: 600},
	"Eggs (tray)":            {Critical: 20, Reorder: 40, Max: 150},
	"Mung Beans (1kg)":       {Critical: 20, Reorder: 50, Max: 300},
	"Dried Fish":             {Critical: 20, Reorder: 50, Max: 250},
	"Ready-to-Eat Meals":     {Critical: 100, Reorder: 250, Max: 1500},
	"Energy Bars":            {Critical: 100, Reorder: 250, Max: 1500},
	"Peanut Butter":          {Critical: 30, Reorder: 60, Max: 300},
	"Fruit Juice":            {Critical: 50, Reorder: 120, Max: 700},
	"Fresh Vegetables":       {Critical: 20, Reorder: 40, Max: 120},
	"Fresh Fruits":           {Critical: 20, Reorder: 40, Max: 120},
	"Food Pack (Family)":     {Critical: 50, Reorder: 120, Max: 800},
	"Food Pack (Individual)": {Critical: 80, Reorder: 200, Max: 1200},

	// Water
	"Bottled Water (500ml)":      {Critical: 200, Reorder: 500, Max: 3000},
	"Bottled Water (1L)":         {Critical: 150, Reorder: 400, Max: 2500},
	"Bottled Water (5L)":         {Critical: 50, Reorder: 120, Max: 700},
	"Water Gallon (20L)":         {Critical: 20, Reorder: 50, Max: 300},
	"Water Purification Tablets": {Critical: 100, Reorder: 300, Max: 2000},
	"Water Container (10L)":      {Critical: 20, Reorder: 50, Max: 300},
	"Water Filter":               {Critical: 5, Reorder: 15, Max: 80},

	// Hygiene
	"Bath Soap":        {Critical: 100, Reorder: 250, Max: 1500},
	"Laundry Soap":     {Critical: 80, Reorder: 200, Max: 1200},
	"Shampoo":          {Critical: 60, Reorder: 150, Max: 900},
	"Toothbrush":       {Critical: 80, Reorder: 200, Max: 1200},
	"Toothpaste":       {Critical: 80, Reorder: 200, Max: 1200},
	"Toilet Paper":     {Critical: 60, Reorder: 150, Max: 900},
	"Sanitary Napkins": {Critical: 60, Reorder: 150, Max: 900},
	"Adult Diapers":    {Critical: 30, Reorder: 80, Max: 400},
	"Alcohol (500ml)":  {Critical: 40, Reorder: 100, Max: 600},
	"Hand Sanitizer":   {Critical: 40, Reorder: 100, Max: 600},
	"Face Masks (box)": {Critical: 30, Reorder: 80, Max: 500},
	"Hygiene Kit":      {Critical: 40, Reorder: 100, Max: 600},
	"Towel":            {Critical: 30, Reorder: 80, Max: 400},
	"Comb":             {Critical: 30, Reorder: 80, Max: 400},
	"Detergent Powder": {Critical: 40, Reorder: 100, Max: 600},
	"Bleach":           {Critical: 20, Reorder: 50, Max: 300},
	"Trash Bags":       {Critical: 40, Reorder: 100, Max: 600},

	// Medical
	"First Aid Kit":          {Critical: 10, Reorder: 30, Max: 150},
	"Paracetamol":            {Critical: 100, Reorder: 300, Max: 2000},
	"Ibuprofen":              {Critical: 80, Reorder: 200, Max: 1500},
	"Amoxicillin":            {Critical: 50, Reorder: 150, Max: 1000},
	"Oral Rehydration Salts": {Critical: 100, Reorder: 250, Max: 1500},
	"Vitamins":               {Critical: 80, Reorder: 200, Max: 1200},
	"Antiseptic Solution":    {Critical: 20, Reorder: 50, Max: 300},
	"Bandages":               {Critical: 50, Reorder: 150, Max: 900},
	"Gauze Pads":             {Critical: 50, Reorder: 150, Max: 900},
	"Medical Gloves (box)":   {Critical: 20, Reorder: 50, Max: 300},
	"Thermometer":            {Critical: 5, Reorder: 15, Max: 80},
	"Blood Pressure Monitor": {Critical: 2, Reorder: 5, Max: 30},
	"Insulin":                {Critical: 10, Reorder: 30, Max: 150},
	"Maintenance Medicine":   {Critical: 30, Reorder: 80, Max: 500},
	"Mosquito Repellent":     {Critical: 40, Reorder: 100, Max: 600},

	// Shelter
	"Tarpaulin":             {Critical: 20, Reorder: 50, Max: 300},
	"Tent (Family)":         {Critical: 5, Reorder: 15, Max: 80},
	"Tent (Individual)":     {Critical: 10, Reorder: 25, Max: 120},
	"Sleeping Mat":          {Critical: 30, Reorder: 80, Max: 400},
	"Blanket":               {Critical: 40, Reorder: 100, Max: 600},
	"Pillow":                {Critical: 20, Reorder: 50, Max: 300},
	"Mosquito Net":          {Critical: 30, Reorder: 80, Max: 400},
	"Rope (10m)":            {Critical: 10, Reorder: 30, Max: 150},
	"Plywood Sheet":         {Critical: 10, Reorder: 30, Max: 200},
	"Galvanized Iron Sheet": {Critical: 10, Reorder: 30, Max: 200},
	"Nails (1kg)":           {Critical: 10, Reorder: 30, Max: 150},
	"Shelter Repair Kit":    {Critical: 5, Reorder: 15, Max: 100},

	// Clothing
	"T-Shirt":             {Critical: 50, Reorder: 120, Max: 800},
	"Shorts":              {Critical: 40, Reorder: 100, Max: 600},
	"Pants":               {Critical: 40, Reorder: 100, Max: 600},
	"Underwear":           {Critical: 60, Reorder: 150, Max: 900},
	"Slippers":            {Critical: 40, Reorder: 100, Max: 600},
	"Raincoat":            {Critical: 20, Reorder: 50, Max: 300},
	"Jacket":              {Critical: 20, Reorder: 50, Max: 300},
	"Children's Clothing": {Critical: 40, Reorder: 100, Max: 600},

	// Baby care
	"Baby Diapers":   {Critical: 60, Reorder: 150, Max: 900},
	"Infant Formula": {Critical: 30, Reorder: 80, Max: 400},
	"Baby Wipes":     {Critical: 40, Reorder: 100, Max: 600},
	"Feeding Bottle": {Critical: 15, Reorder: 40, Max: 200},
	"Baby Food":      {Critical: 30, Reorder: 80, Max: 400},

	// Kitchen and utilities
	"Cooking Pot":         {Critical: 10, Reorder: 30, Max: 150},
	"Kitchen Utensil Set": {Critical: 10, Reorder: 30, Max: 150},
	"Plates and Utensils": {Critical: 20, Reorder: 50, Max: 300},
	"Portable Stove":      {Critical: 5, Reorder: 15, Max: 80},
	"Butane Canister":     {Critical: 20, Reorder: 50, Max: 300},
	"Flashlight":          {Critical: 20, Reorder: 50, Max: 300},
	"Batteries (AA)":      {Critical: 50, Reorder: 150, Max: 900},
	"Candles":             {Critical: 50, Reorder: 150, Max: 900},
	"Matches":             {Critical: 50, Reorder: 150, Max: 900},
	"Solar Lamp":          {Critical: 10, Reorder: 25, Max: 120},
	"Power Bank":          {Critical: 5, Reorder: 15, Max: 80},
	"Bucket":              {Critical: 20, Reorder: 50, Max: 300},
	"Jerry Can":           {Critical: 20, Reorder: 50, Max: 300},

	// School supplies
	"School Kit":    {Critical: 20, Reorder: 50, Max: 300},
	"Notebook":      {Critical: 50, Reorder: 150, Max: 900},
	"Pencils (box)": {Critical: 20, Reorder: 50, Max: 300},
}
